package entity

import "time"

// Shipment 发运单（出库方向的简单CRUD记录，复用物流状态标签）
type Shipment struct {
	ID   string `json:"id" gorm:"primaryKey;size:32"`
	Code string `json:"code" gorm:"size:32;uniqueIndex;not null"`

	CustomerID   string `json:"customer_id" gorm:"size:32;index"`
	CustomerName string `json:"customer_name" gorm:"size:200"` // 创建时的名称快照

	Carrier    string `json:"carrier" gorm:"size:100"`
	TrackingNo string `json:"tracking_no" gorm:"size:100"`

	ShippingStatus string `json:"shipping_status" gorm:"size:20;not null;default:pending"`

	ShippedAt *time.Time `json:"shipped_at"`
	Notes     string     `json:"notes" gorm:"type:text"`

	// 归档覆盖层
	Archived   bool       `json:"archived" gorm:"default:false;index"`
	ArchivedAt *time.Time `json:"archived_at"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Shipment) TableName() string {
	return "wms_shipments"
}
