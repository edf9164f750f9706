package service

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShipmentService 发运单服务（出库方向，复用物流状态标签集）
type ShipmentService struct {
	repo      *repository.ShipmentRepository
	customers *repository.CustomerRepository
	logger    *zap.Logger
}

func NewShipmentService(repo *repository.ShipmentRepository, customers *repository.CustomerRepository, logger *zap.Logger) *ShipmentService {
	return &ShipmentService{repo: repo, customers: customers, logger: logger}
}

// ListShipments 获取发运单列表
func (s *ShipmentService) ListShipments(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Shipment, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// GetShipment 获取发运单详情
func (s *ShipmentService) GetShipment(ctx context.Context, id string) (*entity.Shipment, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateShipmentRequest 创建发运单请求
type CreateShipmentRequest struct {
	CustomerID string     `json:"customer_id" binding:"required"`
	Carrier    string     `json:"carrier"`
	TrackingNo string     `json:"tracking_no"`
	ShippedAt  *time.Time `json:"shipped_at"`
	Notes      string     `json:"notes"`
}

// CreateShipment 创建发运单，客户名称落快照
func (s *ShipmentService) CreateShipment(ctx context.Context, actor Actor, req *CreateShipmentRequest) (*entity.Shipment, error) {
	if err := requirePermission(actor, ActionCreate); err != nil {
		return nil, err
	}

	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, NewValidationError("customer_id", "客户不存在")
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, err
	}

	shipment := &entity.Shipment{
		ID:             uuid.New().String()[:32],
		Code:           code,
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		Carrier:        req.Carrier,
		TrackingNo:     req.TrackingNo,
		ShippingStatus: entity.ShippingStatusPending,
		ShippedAt:      req.ShippedAt,
		Notes:          req.Notes,
		CreatedBy:      actor.UserID,
	}

	if err := s.repo.Create(ctx, shipment); err != nil {
		return nil, err
	}

	s.logger.Info("shipment created", zap.String("code", shipment.Code), zap.String("customer_id", shipment.CustomerID))
	return shipment, nil
}

// UpdateShipmentRequest 更新发运单请求
type UpdateShipmentRequest struct {
	Carrier        *string    `json:"carrier"`
	TrackingNo     *string    `json:"tracking_no"`
	ShippingStatus *string    `json:"shipping_status"`
	ShippedAt      *time.Time `json:"shipped_at"`
	Notes          *string    `json:"notes"`
}

// UpdateShipment 更新发运单
func (s *ShipmentService) UpdateShipment(ctx context.Context, actor Actor, id string, req *UpdateShipmentRequest) (*entity.Shipment, error) {
	if err := requirePermission(actor, ActionEdit); err != nil {
		return nil, err
	}

	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.Archived {
		return nil, ErrInvalidTransition
	}

	if req.ShippingStatus != nil {
		if !entity.IsValidShippingStatus(*req.ShippingStatus) {
			return nil, NewValidationError("shipping_status", "无效的物流状态: "+*req.ShippingStatus)
		}
		shipment.ShippingStatus = *req.ShippingStatus
	}
	if req.Carrier != nil {
		shipment.Carrier = *req.Carrier
	}
	if req.TrackingNo != nil {
		shipment.TrackingNo = *req.TrackingNo
	}
	if req.ShippedAt != nil {
		shipment.ShippedAt = req.ShippedAt
	}
	if req.Notes != nil {
		shipment.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

// ArchiveShipment 归档发运单
func (s *ShipmentService) ArchiveShipment(ctx context.Context, actor Actor, id string) (*entity.Shipment, error) {
	if err := requirePermission(actor, ActionArchive); err != nil {
		return nil, err
	}

	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.Archived {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	shipment.Archived = true
	shipment.ArchivedAt = &now

	if err := s.repo.Update(ctx, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

// RestoreShipment 从归档恢复发运单
func (s *ShipmentService) RestoreShipment(ctx context.Context, actor Actor, id string) (*entity.Shipment, error) {
	if err := requirePermission(actor, ActionRestore); err != nil {
		return nil, err
	}

	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !shipment.Archived {
		return nil, ErrInvalidTransition
	}

	shipment.Archived = false
	shipment.ArchivedAt = nil

	if err := s.repo.Update(ctx, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

// DeleteShipment 删除发运单（仅归档后）
func (s *ShipmentService) DeleteShipment(ctx context.Context, actor Actor, id string) error {
	if err := requirePermission(actor, ActionDelete); err != nil {
		return err
	}

	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !shipment.Archived {
		return ErrInvalidTransition
	}

	return s.repo.Delete(ctx, shipment.ID)
}
