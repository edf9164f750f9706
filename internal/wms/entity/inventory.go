package entity

import "time"

// 库存交易类型
const (
	TxTypePurchaseIn = "PURCHASE_IN" // 采购收货入库
	TxTypeAdjust     = "ADJUST"      // 手工调整
	TxTypeReversal   = "REVERSAL"    // 收货失败补偿回冲
)

// InventoryItem 库存台账条目
type InventoryItem struct {
	ID       string  `json:"id" gorm:"primaryKey;size:32"`
	SKU      string  `json:"sku" gorm:"size:64;uniqueIndex;not null"`
	Name     string  `json:"name" gorm:"size:200;not null"`
	Quantity float64 `json:"quantity" gorm:"type:decimal(12,4);not null;default:0"` // 在库数量
	UnitCost float64 `json:"unit_cost" gorm:"type:decimal(12,4);default:0"`
	Unit     string  `json:"unit" gorm:"size:20;not null;default:pcs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InventoryItem) TableName() string {
	return "wms_inventory_items"
}

// InventoryTransaction 库存交易流水（台账变动审计）
type InventoryTransaction struct {
	ID              string  `json:"id" gorm:"primaryKey;size:32"`
	InventoryItemID string  `json:"inventory_item_id" gorm:"size:32;not null;index"`
	ItemName        string  `json:"item_name" gorm:"size:200"`
	TransactionType string  `json:"transaction_type" gorm:"size:20;not null"`
	Quantity        float64 `json:"quantity" gorm:"type:decimal(12,4);not null"` // 正=入，负=出
	ReferenceType   string  `json:"reference_type" gorm:"size:20"`               // PO, ADJUST
	ReferenceID     string  `json:"reference_id" gorm:"size:64"`
	ReferenceCode   string  `json:"reference_code" gorm:"size:50"`
	Notes           string  `json:"notes" gorm:"type:text"`
	CreatedBy       string  `json:"created_by" gorm:"size:32"`

	CreatedAt time.Time `json:"created_at"`
}

func (InventoryTransaction) TableName() string {
	return "wms_inventory_transactions"
}
