package entity

import "time"

// Customer 客户
type Customer struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	Code   string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name   string `json:"name" gorm:"size:200;not null"`
	Status string `json:"status" gorm:"size:20;default:active"`

	Country string `json:"country" gorm:"size:50"`
	City    string `json:"city" gorm:"size:50"`
	Address string `json:"address" gorm:"size:500"`
	Phone   string `json:"phone" gorm:"size:50"`
	Email   string `json:"email" gorm:"size:200"`

	Notes string `json:"notes" gorm:"type:text"`

	// 归档覆盖层
	Archived   bool       `json:"archived" gorm:"default:false;index"`
	ArchivedAt *time.Time `json:"archived_at"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "wms_customers"
}
