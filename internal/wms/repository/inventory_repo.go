package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryRepository 库存台账仓库，同时实现收货对账所需的台账接口
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// InventoryListParams 库存查询参数
type InventoryListParams struct {
	Page     int
	PageSize int
	Search   string
}

// List 查询库存列表
func (r *InventoryRepository) List(ctx context.Context, params InventoryListParams) ([]entity.InventoryItem, int64, error) {
	var items []entity.InventoryItem
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.InventoryItem{})
	if params.Search != "" {
		query = query.Where("sku ILIKE ? OR name ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.PageSize
	err := query.Order("sku ASC").Offset(offset).Limit(params.PageSize).Find(&items).Error
	return items, total, err
}

// GetItem 查询单个库存条目
func (r *InventoryRepository) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建库存条目
func (r *InventoryRepository) Create(ctx context.Context, item *entity.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update 更新库存条目
func (r *InventoryRepository) Update(ctx context.Context, item *entity.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// LedgerRef 台账变动的业务引用
type LedgerRef struct {
	Type      string // PO, ADJUST
	ID        string
	Code      string
	TxType    string
	Notes     string
	CreatedBy string
}

// AdjustQuantity 调整在库数量并写入交易流水，返回调整后数量。
// 数量更新与流水写入在同一事务内完成。
func (r *InventoryRepository) AdjustQuantity(ctx context.Context, itemID string, delta float64, ref LedgerRef) (float64, error) {
	var newQty float64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item entity.InventoryItem
		if err := tx.Where("id = ?", itemID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		item.Quantity += delta
		if item.Quantity < 0 {
			return fmt.Errorf("库存不能为负数: %s 当前%.4f 调整%.4f", item.SKU, item.Quantity-delta, delta)
		}

		if err := tx.Model(&entity.InventoryItem{}).
			Where("id = ?", itemID).
			Updates(map[string]interface{}{
				"quantity":   item.Quantity,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		txRow := &entity.InventoryTransaction{
			ID:              uuid.New().String()[:32],
			InventoryItemID: item.ID,
			ItemName:        item.Name,
			TransactionType: ref.TxType,
			Quantity:        delta,
			ReferenceType:   ref.Type,
			ReferenceID:     ref.ID,
			ReferenceCode:   ref.Code,
			Notes:           ref.Notes,
			CreatedBy:       ref.CreatedBy,
		}
		if err := tx.Create(txRow).Error; err != nil {
			return err
		}

		newQty = item.Quantity
		return nil
	})

	return newQty, err
}

// ListTransactions 查询库存交易流水
func (r *InventoryRepository) ListTransactions(ctx context.Context, itemID string, page, pageSize int) ([]entity.InventoryTransaction, int64, error) {
	var items []entity.InventoryTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.InventoryTransaction{})
	if itemID != "" {
		query = query.Where("inventory_item_id = ?", itemID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&items).Error
	return items, total, err
}
