package service

import (
	"context"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService 库存台账服务，实现收货对账所需的 InventoryLedger 接口
type InventoryService struct {
	repo   *repository.InventoryRepository
	logger *zap.Logger
}

func NewInventoryService(repo *repository.InventoryRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{repo: repo, logger: logger}
}

// GetItem 实现 InventoryLedger
func (s *InventoryService) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return s.repo.GetItem(ctx, id)
}

// AdjustQuantity 实现 InventoryLedger
func (s *InventoryService) AdjustQuantity(ctx context.Context, itemID string, delta float64, ref repository.LedgerRef) (float64, error) {
	return s.repo.AdjustQuantity(ctx, itemID, delta, ref)
}

// ListItems 获取库存列表
func (s *InventoryService) ListItems(ctx context.Context, params repository.InventoryListParams) ([]entity.InventoryItem, int64, error) {
	return s.repo.List(ctx, params)
}

// CreateItemRequest 创建库存条目请求
type CreateItemRequest struct {
	SKU      string  `json:"sku" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
	Unit     string  `json:"unit"`
}

// CreateItem 创建库存条目
func (s *InventoryService) CreateItem(ctx context.Context, actor Actor, req *CreateItemRequest) (*entity.InventoryItem, error) {
	if err := requirePermission(actor, ActionCreate); err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, NewValidationError("quantity", "初始库存不能为负")
	}

	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	item := &entity.InventoryItem{
		ID:       uuid.New().String()[:32],
		SKU:      req.SKU,
		Name:     req.Name,
		Quantity: req.Quantity,
		UnitCost: req.UnitCost,
		Unit:     unit,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("inventory item created", zap.String("sku", item.SKU), zap.Float64("quantity", item.Quantity))
	return item, nil
}

// UpdateItemRequest 更新库存条目请求（不含数量，数量走调整流水）
type UpdateItemRequest struct {
	Name     *string  `json:"name"`
	UnitCost *float64 `json:"unit_cost"`
	Unit     *string  `json:"unit"`
}

// UpdateItem 更新库存条目基本信息。在库数量只能通过 AdjustItem 变更。
func (s *InventoryService) UpdateItem(ctx context.Context, actor Actor, id string, req *UpdateItemRequest) (*entity.InventoryItem, error) {
	if err := requirePermission(actor, ActionEdit); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.UnitCost != nil {
		if *req.UnitCost < 0 {
			return nil, NewValidationError("unit_cost", "单位成本不能为负")
		}
		item.UnitCost = *req.UnitCost
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// AdjustItemRequest 手工调整库存请求
type AdjustItemRequest struct {
	Delta float64 `json:"delta" binding:"required"`
	Notes string  `json:"notes"`
}

// AdjustItem 手工调整在库数量，写入 ADJUST 流水
func (s *InventoryService) AdjustItem(ctx context.Context, actor Actor, id string, req *AdjustItemRequest) (float64, error) {
	if err := requirePermission(actor, ActionAdjustInventory); err != nil {
		return 0, err
	}
	if req.Delta == 0 {
		return 0, NewValidationError("delta", "调整量不能为零")
	}

	ref := repository.LedgerRef{
		Type:      "adjustment",
		TxType:    entity.TxTypeAdjust,
		Notes:     req.Notes,
		CreatedBy: actor.UserID,
	}

	newQty, err := s.repo.AdjustQuantity(ctx, id, req.Delta, ref)
	if err != nil {
		return 0, err
	}

	s.logger.Info("inventory adjusted",
		zap.String("item_id", id),
		zap.Float64("delta", req.Delta),
		zap.Float64("new_qty", newQty),
		zap.String("user_id", actor.UserID),
	)
	return newQty, nil
}

// ListTransactions 查询库存交易流水
func (s *InventoryService) ListTransactions(ctx context.Context, itemID string, page, pageSize int) ([]entity.InventoryTransaction, int64, error) {
	return s.repo.ListTransactions(ctx, itemID, page, pageSize)
}
