package service

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryLedger 库存台账接口（收货对账的外部协作方）
type InventoryLedger interface {
	GetItem(ctx context.Context, id string) (*entity.InventoryItem, error)
	AdjustQuantity(ctx context.Context, itemID string, delta float64, ref repository.LedgerRef) (float64, error)
}

// SupplierDirectory 供应商目录接口（创建PO时落快照）
type SupplierDirectory interface {
	FindByID(ctx context.Context, id string) (*entity.Supplier, error)
}

// StatsInvalidator 看板统计缓存的失效协作方
type StatsInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// POService 采购订单服务：CRUD、生命周期、收货对账
type POService struct {
	poRepo    *repository.PORepository
	suppliers SupplierDirectory
	ledger    InventoryLedger
	stats     StatsInvalidator
	logger    *zap.Logger
}

func NewPOService(poRepo *repository.PORepository, suppliers SupplierDirectory, ledger InventoryLedger, logger *zap.Logger) *POService {
	return &POService{
		poRepo:    poRepo,
		suppliers: suppliers,
		ledger:    ledger,
		logger:    logger,
	}
}

// ListPOs 获取采购订单列表
func (s *POService) ListPOs(ctx context.Context, params repository.POListParams) ([]entity.PurchaseOrder, int64, error) {
	return s.poRepo.FindAll(ctx, params)
}

// GetPO 获取采购订单详情
func (s *POService) GetPO(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.poRepo.FindByID(ctx, id)
}

// CreatePORequest 创建PO请求
type CreatePORequest struct {
	SupplierID   string         `json:"supplier_id" binding:"required"`
	BillNumber   string         `json:"bill_number"`
	PODate       *time.Time     `json:"po_date"`
	ExpectedDate *time.Time     `json:"expected_date"`
	Notes        string         `json:"notes"`
	Items        []CreatePOItem `json:"items"`
}

type CreatePOItem struct {
	InventoryItemID string  `json:"inventory_item_id" binding:"required"`
	Quantity        float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice       float64 `json:"unit_price"`
}

// CreatePO 创建采购订单（草稿）
func (s *POService) CreatePO(ctx context.Context, actor Actor, req *CreatePORequest) (*entity.PurchaseOrder, error) {
	if err := requirePermission(actor, ActionCreate); err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, NewValidationError("items", "行项不能为空")
	}
	if req.ExpectedDate == nil {
		return nil, NewValidationError("expected_date", "预计到货日期不能为空")
	}

	supplier, err := s.suppliers.FindByID(ctx, req.SupplierID)
	if err != nil {
		return nil, NewValidationError("supplier_id", "供应商不存在")
	}

	code, err := s.poRepo.GenerateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	poDate := req.PODate
	if poDate == nil {
		poDate = &now
	}

	po := &entity.PurchaseOrder{
		ID:     uuid.New().String()[:32],
		POCode: code,

		SupplierID:      supplier.ID,
		SupplierName:    supplier.Name,
		SupplierCountry: supplier.Country,
		SupplierCity:    supplier.City,

		BillNumber:     req.BillNumber,
		Status:         entity.POStatusDraft,
		ShippingStatus: entity.ShippingStatusPending,
		PODate:         poDate,
		ExpectedDate:   req.ExpectedDate,
		Notes:          req.Notes,
		CreatedBy:      actor.UserID,
		Version:        1,
	}

	items, err := s.buildLineItems(ctx, po.ID, req.Items)
	if err != nil {
		return nil, err
	}
	po.Items = items
	po.RecomputeTotals()

	if po.TotalAmount <= 0 {
		return nil, NewValidationError("items", "订单金额必须大于零")
	}

	if err := s.poRepo.Create(ctx, po); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)

	s.logger.Info("PO created",
		zap.String("po_code", po.POCode),
		zap.String("supplier_id", po.SupplierID),
		zap.Float64("total_amount", po.TotalAmount),
		zap.String("created_by", actor.UserID),
	)
	return po, nil
}

// buildLineItems 构建行项，物料名称从库存台账取快照
func (s *POService) buildLineItems(ctx context.Context, poID string, items []CreatePOItem) ([]entity.POLineItem, error) {
	var result []entity.POLineItem
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, NewValidationError("items", "订购数量必须大于零")
		}

		invItem, err := s.ledger.GetItem(ctx, item.InventoryItemID)
		if err != nil {
			return nil, NewValidationError("items", "库存物料不存在: "+item.InventoryItemID)
		}

		unitPrice := item.UnitPrice
		if unitPrice <= 0 {
			unitPrice = invItem.UnitCost
		}

		result = append(result, entity.POLineItem{
			ID:              uuid.New().String()[:32],
			POID:            poID,
			InventoryItemID: invItem.ID,
			ItemName:        invItem.Name,
			Quantity:        item.Quantity,
			UnitPrice:       unitPrice,
			TotalPrice:      item.Quantity * unitPrice,
			SortOrder:       i + 1,
		})
	}
	return result, nil
}

// UpdatePORequest 更新PO请求。Items仅草稿状态可改。
type UpdatePORequest struct {
	BillNumber   *string        `json:"bill_number"`
	ExpectedDate *time.Time     `json:"expected_date"`
	Notes        *string        `json:"notes"`
	Items        []CreatePOItem `json:"items"`
	Version      *int           `json:"version"`
}

// UpdatePO 更新采购订单
func (s *POService) UpdatePO(ctx context.Context, actor Actor, id string, req *UpdatePORequest) (*entity.PurchaseOrder, error) {
	if err := requirePermission(actor, ActionEdit); err != nil {
		return nil, err
	}

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Archived {
		return nil, ErrInvalidTransition
	}
	if err := checkVersion(po, req.Version); err != nil {
		return nil, err
	}
	if entity.IsTerminalStatus(po.Status) {
		return nil, ErrInvalidTransition
	}

	if req.BillNumber != nil {
		po.BillNumber = *req.BillNumber
	}
	if req.ExpectedDate != nil {
		po.ExpectedDate = req.ExpectedDate
	}
	if req.Notes != nil {
		po.Notes = *req.Notes
	}

	if req.Items != nil {
		// 行项仅草稿状态可改
		if po.Status != entity.POStatusDraft {
			return nil, ErrInvalidTransition
		}
		if len(req.Items) == 0 {
			return nil, NewValidationError("items", "行项不能为空")
		}

		items, err := s.buildLineItems(ctx, po.ID, req.Items)
		if err != nil {
			return nil, err
		}
		po.Items = items
		// 行项编辑使实际成本覆盖失效，按行项重算
		po.ActualCostSet = false
		po.RecomputeTotals()

		if err := s.poRepo.ReplaceItems(ctx, po); err != nil {
			return nil, err
		}
		s.invalidateStats(ctx)
		return s.poRepo.FindByID(ctx, po.ID)
	}

	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// RecordPaymentRequest 付款记录请求
type RecordPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
	Version   *int    `json:"version"`
}

// RecordPayment 记录付款，累加已付金额并重算余额。余额可为负（超付），不做钳制。
func (s *POService) RecordPayment(ctx context.Context, actor Actor, id string, req *RecordPaymentRequest) (*entity.PurchaseOrder, error) {
	if err := requirePermission(actor, ActionPay); err != nil {
		return nil, err
	}

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Archived {
		return nil, ErrInvalidTransition
	}
	if err := checkVersion(po, req.Version); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, NewValidationError("amount", "付款金额必须大于零")
	}

	payment := &entity.POPayment{
		ID:        uuid.New().String()[:32],
		POID:      po.ID,
		Amount:    req.Amount,
		Reference: req.Reference,
		Notes:     req.Notes,
		CreatedBy: actor.UserID,
	}

	po.TotalPaid += req.Amount
	po.RecomputeTotals()

	if err := s.poRepo.AddPayment(ctx, po, payment); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)

	s.logger.Info("PO payment recorded",
		zap.String("po_code", po.POCode),
		zap.Float64("amount", req.Amount),
		zap.Float64("balance", po.POBalance),
	)
	return s.poRepo.FindByID(ctx, po.ID)
}

// UpdateShippingStatusRequest 物流状态更新请求
type UpdateShippingStatusRequest struct {
	ShippingStatus string `json:"shipping_status" binding:"required"`
	Version        *int   `json:"version"`
}

// UpdateShippingStatus 更新物流标签。物流状态独立于审批状态机，互不驱动。
func (s *POService) UpdateShippingStatus(ctx context.Context, actor Actor, id string, req *UpdateShippingStatusRequest) (*entity.PurchaseOrder, error) {
	if err := requirePermission(actor, ActionEdit); err != nil {
		return nil, err
	}

	if !entity.IsValidShippingStatus(req.ShippingStatus) {
		return nil, NewValidationError("shipping_status", "无效的物流状态: "+req.ShippingStatus)
	}

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Archived {
		return nil, ErrInvalidTransition
	}
	if err := checkVersion(po, req.Version); err != nil {
		return nil, err
	}

	po.ShippingStatus = req.ShippingStatus
	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// SetStatsInvalidator 挂接看板缓存，订单变更后主动失效
func (s *POService) SetStatsInvalidator(stats StatsInvalidator) {
	s.stats = stats
}

func (s *POService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.InvalidateCache(ctx)
	}
}

// checkVersion 调用方提供版本号时做乐观并发校验
func checkVersion(po *entity.PurchaseOrder, version *int) error {
	if version != nil && *version != po.Version {
		return repository.ErrConflict
	}
	return nil
}
