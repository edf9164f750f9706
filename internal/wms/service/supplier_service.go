package service

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SupplierService 供应商服务
type SupplierService struct {
	repo   *repository.SupplierRepository
	logger *zap.Logger
}

func NewSupplierService(repo *repository.SupplierRepository, logger *zap.Logger) *SupplierService {
	return &SupplierService{repo: repo, logger: logger}
}

// FindByID 实现 SupplierDirectory 接口
func (s *SupplierService) FindByID(ctx context.Context, id string) (*entity.Supplier, error) {
	return s.repo.FindByID(ctx, id)
}

// ListSuppliers 获取供应商列表
func (s *SupplierService) ListSuppliers(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Supplier, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// GetSupplier 获取供应商详情
func (s *SupplierService) GetSupplier(ctx context.Context, id string) (*entity.Supplier, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateSupplierRequest 创建供应商请求
type CreateSupplierRequest struct {
	Name         string             `json:"name" binding:"required"`
	Country      string             `json:"country"`
	City         string             `json:"city"`
	Address      string             `json:"address"`
	ContactName  string             `json:"contact_name"`
	ContactPhone string             `json:"contact_phone"`
	ContactEmail string             `json:"contact_email"`
	Tags         *entity.JSONBArray `json:"tags"`
	Notes        string             `json:"notes"`
}

// CreateSupplier 创建供应商
func (s *SupplierService) CreateSupplier(ctx context.Context, actor Actor, req *CreateSupplierRequest) (*entity.Supplier, error) {
	if err := requirePermission(actor, ActionCreate); err != nil {
		return nil, err
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, err
	}

	supplier := &entity.Supplier{
		ID:           uuid.New().String()[:32],
		Code:         code,
		Name:         req.Name,
		Status:       entity.SupplierStatusActive,
		Country:      req.Country,
		City:         req.City,
		Address:      req.Address,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Tags:         req.Tags,
		Notes:        req.Notes,
		CreatedBy:    actor.UserID,
	}

	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.Info("supplier created", zap.String("code", supplier.Code), zap.String("name", supplier.Name))
	return supplier, nil
}

// UpdateSupplierRequest 更新供应商请求
type UpdateSupplierRequest struct {
	Name         *string            `json:"name"`
	Status       *string            `json:"status"`
	Country      *string            `json:"country"`
	City         *string            `json:"city"`
	Address      *string            `json:"address"`
	ContactName  *string            `json:"contact_name"`
	ContactPhone *string            `json:"contact_phone"`
	ContactEmail *string            `json:"contact_email"`
	Tags         *entity.JSONBArray `json:"tags"`
	Notes        *string            `json:"notes"`
}

// UpdateSupplier 更新供应商
func (s *SupplierService) UpdateSupplier(ctx context.Context, actor Actor, id string, req *UpdateSupplierRequest) (*entity.Supplier, error) {
	if err := requirePermission(actor, ActionEdit); err != nil {
		return nil, err
	}

	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if supplier.Archived {
		return nil, ErrInvalidTransition
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.Status != nil {
		supplier.Status = *req.Status
	}
	if req.Country != nil {
		supplier.Country = *req.Country
	}
	if req.City != nil {
		supplier.City = *req.City
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}
	if req.ContactName != nil {
		supplier.ContactName = *req.ContactName
	}
	if req.ContactPhone != nil {
		supplier.ContactPhone = *req.ContactPhone
	}
	if req.ContactEmail != nil {
		supplier.ContactEmail = *req.ContactEmail
	}
	if req.Tags != nil {
		supplier.Tags = req.Tags
	}
	if req.Notes != nil {
		supplier.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// ArchiveSupplier 归档供应商
func (s *SupplierService) ArchiveSupplier(ctx context.Context, actor Actor, id string) (*entity.Supplier, error) {
	if err := requirePermission(actor, ActionArchive); err != nil {
		return nil, err
	}

	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if supplier.Archived {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	supplier.Archived = true
	supplier.ArchivedAt = &now

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// RestoreSupplier 从归档恢复供应商
func (s *SupplierService) RestoreSupplier(ctx context.Context, actor Actor, id string) (*entity.Supplier, error) {
	if err := requirePermission(actor, ActionRestore); err != nil {
		return nil, err
	}

	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !supplier.Archived {
		return nil, ErrInvalidTransition
	}

	supplier.Archived = false
	supplier.ArchivedAt = nil

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// DeleteSupplier 删除供应商（仅归档后）
func (s *SupplierService) DeleteSupplier(ctx context.Context, actor Actor, id string) error {
	if err := requirePermission(actor, ActionDelete); err != nil {
		return err
	}

	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !supplier.Archived {
		return ErrInvalidTransition
	}

	return s.repo.Delete(ctx, supplier.ID)
}
