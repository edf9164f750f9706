package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONBArray JSONB数组类型
type JSONBArray []interface{}

func (j JSONBArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONBArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONBArray: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

// 供应商状态
const (
	SupplierStatusPending   = "pending"
	SupplierStatusActive    = "active"
	SupplierStatusSuspended = "suspended"
)

// Supplier 供应商
type Supplier struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	Code   string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name   string `json:"name" gorm:"size:200;not null"`
	Status string `json:"status" gorm:"size:20;default:active"`

	// 基本信息
	Country string `json:"country" gorm:"size:50"`
	City    string `json:"city" gorm:"size:50"`
	Address string `json:"address" gorm:"size:500"`

	// 联系方式
	ContactName  string `json:"contact_name" gorm:"size:100"`
	ContactPhone string `json:"contact_phone" gorm:"size:50"`
	ContactEmail string `json:"contact_email" gorm:"size:200"`

	Tags  *JSONBArray `json:"tags" gorm:"type:jsonb"`
	Notes string      `json:"notes" gorm:"type:text"`

	// 归档覆盖层
	Archived   bool       `json:"archived" gorm:"default:false;index"`
	ArchivedAt *time.Time `json:"archived_at"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "wms_suppliers"
}
