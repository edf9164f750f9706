package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"gorm.io/gorm"
)

// PORepository 采购订单仓库
type PORepository struct {
	db *gorm.DB
}

func NewPORepository(db *gorm.DB) *PORepository {
	return &PORepository{db: db}
}

// POListParams 采购订单查询参数
type POListParams struct {
	Page       int
	PageSize   int
	SupplierID string
	Status     string
	Archived   *bool
	Search     string
}

// FindAll 查询采购订单列表
func (r *PORepository) FindAll(ctx context.Context, params POListParams) ([]entity.PurchaseOrder, int64, error) {
	var items []entity.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{})

	if params.SupplierID != "" {
		query = query.Where("supplier_id = ?", params.SupplierID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Archived != nil {
		query = query.Where("archived = ?", *params.Archived)
	}
	if params.Search != "" {
		query = query.Where("po_code ILIKE ? OR bill_number ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.PageSize
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("created_at DESC").
		Offset(offset).
		Limit(params.PageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找采购订单（含行项与付款记录）
func (r *PORepository) FindByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Payments").
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// Create 创建采购订单（含行项）
func (r *PORepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

// Update 更新采购订单头，带乐观锁版本校验。
// 版本不匹配（并发写）返回 ErrConflict，不产生部分更新。
func (r *PORepository) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	current := po.Version
	po.Version = current + 1

	res := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Where("id = ? AND version = ?", po.ID, current).
		Select("*").
		Omit("id", "po_code", "created_at", "created_by", "Items", "Payments").
		Updates(po)
	if res.Error != nil {
		po.Version = current
		return res.Error
	}
	if res.RowsAffected == 0 {
		po.Version = current
		return ErrConflict
	}
	return nil
}

// UpdateWithItems 在单个事务中更新订单头与全部行项（收货对账使用）
func (r *PORepository) UpdateWithItems(ctx context.Context, po *entity.PurchaseOrder) error {
	current := po.Version

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.PurchaseOrder{}).
			Where("id = ? AND version = ?", po.ID, current).
			Updates(map[string]interface{}{
				"status":          po.Status,
				"shipping_status": po.ShippingStatus,
				"total_amount":    po.TotalAmount,
				"actual_cost_set": po.ActualCostSet,
				"total_paid":      po.TotalPaid,
				"po_balance":      po.POBalance,
				"version":         current + 1,
				"updated_at":      time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		for i := range po.Items {
			if err := tx.Model(&entity.POLineItem{}).
				Where("id = ?", po.Items[i].ID).
				Updates(map[string]interface{}{
					"quantity_received": po.Items[i].QuantityReceived,
					"updated_at":        time.Now(),
				}).Error; err != nil {
				return err
			}
		}

		po.Version = current + 1
		return nil
	})
}

// ReplaceItems 在事务中替换全部行项并更新订单头（仅草稿编辑使用）
func (r *PORepository) ReplaceItems(ctx context.Context, po *entity.PurchaseOrder) error {
	current := po.Version

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.PurchaseOrder{}).
			Where("id = ? AND version = ?", po.ID, current).
			Updates(map[string]interface{}{
				"total_amount":    po.TotalAmount,
				"actual_cost_set": po.ActualCostSet,
				"po_balance":      po.POBalance,
				"expected_date":   po.ExpectedDate,
				"bill_number":     po.BillNumber,
				"notes":           po.Notes,
				"version":         current + 1,
				"updated_at":      time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if err := tx.Where("po_id = ?", po.ID).Delete(&entity.POLineItem{}).Error; err != nil {
			return err
		}
		if len(po.Items) > 0 {
			if err := tx.Create(&po.Items).Error; err != nil {
				return err
			}
		}

		po.Version = current + 1
		return nil
	})
}

// Delete 删除采购订单及行项、付款记录
func (r *PORepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("po_id = ?", id).Delete(&entity.POLineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("po_id = ?", id).Delete(&entity.POPayment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("po_id = ?", id).Delete(&entity.POAttachment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&entity.PurchaseOrder{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddPayment 在单个事务中写入付款记录并更新累计已付/余额（乐观锁）
func (r *PORepository) AddPayment(ctx context.Context, po *entity.PurchaseOrder, payment *entity.POPayment) error {
	current := po.Version

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		res := tx.Model(&entity.PurchaseOrder{}).
			Where("id = ? AND version = ?", po.ID, current).
			Updates(map[string]interface{}{
				"total_paid": po.TotalPaid,
				"po_balance": po.POBalance,
				"version":    current + 1,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		po.Version = current + 1
		return nil
	})
}

// CreateAttachment 写入附件记录
func (r *PORepository) CreateAttachment(ctx context.Context, att *entity.POAttachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

// ListAttachments 查询PO附件
func (r *PORepository) ListAttachments(ctx context.Context, poID string) ([]entity.POAttachment, error) {
	var items []entity.POAttachment
	err := r.db.WithContext(ctx).Where("po_id = ?", poID).Order("created_at DESC").Find(&items).Error
	return items, err
}

// CountByStatus 按状态统计（仪表盘使用）
func (r *PORepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Select("status, COUNT(*) as count").
		Where("archived = false").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// SumOpenBalance 汇总未结余额（仪表盘使用）
func (r *PORepository) SumOpenBalance(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Select("COALESCE(SUM(po_balance), 0)").
		Where("archived = false AND status NOT IN ?", []string{entity.POStatusCancelled, entity.POStatusRejected}).
		Scan(&total).Error
	return total, err
}

// GenerateCode 生成PO编码 PO-{year}-{4位}
func (r *PORepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("PO-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Select("COALESCE(MAX(po_code), '')").
		Where("po_code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "PO-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("PO-%s-%04d", year, seq), nil
}
