package entity

import "time"

// PO审批状态（审批/收货状态机）
const (
	POStatusDraft           = "draft"
	POStatusPendingApproval = "pending_approval"
	POStatusApproved        = "approved"
	POStatusRejected        = "rejected"
	POStatusOrdered         = "ordered"
	POStatusPartial         = "partially_received"
	POStatusReceived        = "received"
	POStatusCancelled       = "cancelled"
)

// 物流状态（独立于审批状态机的展示标签，两者互不驱动）
const (
	ShippingStatusPending   = "pending"
	ShippingStatusInTransit = "in_transit"
	ShippingStatusDelivered = "delivered"
	ShippingStatusDelayed   = "delayed"
	ShippingStatusReturned  = "returned"
)

// ValidStatusTransitions PO审批状态机转换表。
// 收货相关转换（ordered/partially_received → received）由收货对账写入，
// 此表仍然声明它们，供状态机校验使用。
var ValidStatusTransitions = map[string][]string{
	POStatusDraft:           {POStatusPendingApproval, POStatusCancelled},
	POStatusPendingApproval: {POStatusApproved, POStatusRejected, POStatusCancelled},
	POStatusApproved:        {POStatusOrdered, POStatusCancelled},
	POStatusRejected:        {POStatusCancelled},
	POStatusOrdered:         {POStatusPartial, POStatusReceived, POStatusCancelled},
	POStatusPartial:         {POStatusPartial, POStatusReceived, POStatusCancelled},
	POStatusReceived:        {},
	POStatusCancelled:       {},
}

// CanTransition 判断审批状态机是否允许 from → to
func CanTransition(from, to string) bool {
	for _, target := range ValidStatusTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus 终态判断（received/cancelled/rejected）
func IsTerminalStatus(status string) bool {
	return status == POStatusReceived || status == POStatusCancelled || status == POStatusRejected
}

// ValidShippingStatuses 合法的物流状态标签
var ValidShippingStatuses = []string{
	ShippingStatusPending,
	ShippingStatusInTransit,
	ShippingStatusDelivered,
	ShippingStatusDelayed,
	ShippingStatusReturned,
}

// IsValidShippingStatus 物流状态合法性检查
func IsValidShippingStatus(s string) bool {
	for _, v := range ValidShippingStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// PurchaseOrder 采购订单
type PurchaseOrder struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	POCode string `json:"po_code" gorm:"size:32;uniqueIndex;not null"`

	// 供应商快照（创建/编辑时落库，不实时关联）
	SupplierID      string `json:"supplier_id" gorm:"size:32;not null;index"`
	SupplierName    string `json:"supplier_name" gorm:"size:200"`
	SupplierCountry string `json:"supplier_country" gorm:"size:50"`
	SupplierCity    string `json:"supplier_city" gorm:"size:50"`

	BillNumber string `json:"bill_number" gorm:"size:100"`

	// 状态：审批状态机 + 独立物流标签
	Status         string `json:"status" gorm:"size:30;not null;default:draft;index"`
	ShippingStatus string `json:"shipping_status" gorm:"size:20;not null;default:pending"`

	// 金额
	TotalAmount   float64 `json:"total_amount" gorm:"type:decimal(15,2);default:0"`
	ActualCostSet bool    `json:"actual_cost_set" gorm:"default:false"` // 收货时录入实际成本后置位，行项再编辑时清除
	TotalPaid     float64 `json:"total_paid" gorm:"type:decimal(15,2);default:0"`
	POBalance     float64 `json:"po_balance" gorm:"type:decimal(15,2);default:0"` // total_amount - total_paid，可为负（超付）

	// 日期
	PODate       *time.Time `json:"po_date"`
	ExpectedDate *time.Time `json:"expected_date"`

	Notes string `json:"notes" gorm:"type:text"`

	// 归档覆盖层，与审批状态正交
	Archived   bool       `json:"archived" gorm:"default:false;index"`
	ArchivedAt *time.Time `json:"archived_at"`

	// 审计
	CreatedBy  string     `json:"created_by" gorm:"size:32"`
	ApprovedBy *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt *time.Time `json:"approved_at"`

	// 乐观锁版本号，所有变更操作校验
	Version int `json:"version" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Items    []POLineItem `json:"items,omitempty" gorm:"foreignKey:POID"`
	Payments []POPayment  `json:"payments,omitempty" gorm:"foreignKey:POID"`
}

func (PurchaseOrder) TableName() string {
	return "wms_purchase_orders"
}

// RecomputeTotals 按行项重算总额与余额。实际成本覆盖生效时不动总额。
func (po *PurchaseOrder) RecomputeTotals() {
	if !po.ActualCostSet {
		var total float64
		for _, item := range po.Items {
			total += item.TotalPrice
		}
		po.TotalAmount = total
	}
	po.POBalance = po.TotalAmount - po.TotalPaid
}

// AllItemsReceived 是否所有行项均已收满
func (po *PurchaseOrder) AllItemsReceived() bool {
	if len(po.Items) == 0 {
		return false
	}
	for _, item := range po.Items {
		if item.QuantityReceived < item.Quantity {
			return false
		}
	}
	return true
}

// POLineItem 采购订单行项
type POLineItem struct {
	ID   string `json:"id" gorm:"primaryKey;size:32"`
	POID string `json:"po_id" gorm:"size:32;not null;index"`

	InventoryItemID string `json:"inventory_item_id" gorm:"size:32;not null;index"`
	ItemName        string `json:"item_name" gorm:"size:200;not null"` // 下单时的名称快照

	Quantity   float64 `json:"quantity" gorm:"type:decimal(12,4);not null"`
	UnitPrice  float64 `json:"unit_price" gorm:"type:decimal(12,4);not null"`
	TotalPrice float64 `json:"total_price" gorm:"type:decimal(15,2);not null"`

	// 累计已收数量，只允许收货对账增加，0 ≤ quantity_received ≤ quantity
	QuantityReceived float64 `json:"quantity_received" gorm:"type:decimal(12,4);default:0"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (POLineItem) TableName() string {
	return "wms_po_line_items"
}

// Remaining 剩余待收数量
func (i *POLineItem) Remaining() float64 {
	return i.Quantity - i.QuantityReceived
}

// POPayment 采购订单付款记录
type POPayment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	POID      string    `json:"po_id" gorm:"size:32;not null;index"`
	Amount    float64   `json:"amount" gorm:"type:decimal(15,2);not null"`
	Reference string    `json:"reference" gorm:"size:100"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
}

func (POPayment) TableName() string {
	return "wms_po_payments"
}

// POAttachment 采购订单附件（票据等，对象存储于MinIO）
type POAttachment struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	POID       string    `json:"po_id" gorm:"size:32;not null;index"`
	FileName   string    `json:"file_name" gorm:"size:255;not null"`
	ObjectKey  string    `json:"object_key" gorm:"size:512;not null"`
	Size       int64     `json:"size"`
	UploadedBy string    `json:"uploaded_by" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (POAttachment) TableName() string {
	return "wms_po_attachments"
}
