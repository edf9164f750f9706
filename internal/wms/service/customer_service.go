package service

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService 客户服务
type CustomerService struct {
	repo   *repository.CustomerRepository
	logger *zap.Logger
}

func NewCustomerService(repo *repository.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{repo: repo, logger: logger}
}

// ListCustomers 获取客户列表
func (s *CustomerService) ListCustomers(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Customer, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// GetCustomer 获取客户详情
func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*entity.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateCustomerRequest 创建客户请求
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Country string `json:"country"`
	City    string `json:"city"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Notes   string `json:"notes"`
}

// CreateCustomer 创建客户
func (s *CustomerService) CreateCustomer(ctx context.Context, actor Actor, req *CreateCustomerRequest) (*entity.Customer, error) {
	if err := requirePermission(actor, ActionCreate); err != nil {
		return nil, err
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, err
	}

	customer := &entity.Customer{
		ID:        uuid.New().String()[:32],
		Code:      code,
		Name:      req.Name,
		Status:    "active",
		Country:   req.Country,
		City:      req.City,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		Notes:     req.Notes,
		CreatedBy: actor.UserID,
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("customer created", zap.String("code", customer.Code), zap.String("name", customer.Name))
	return customer, nil
}

// UpdateCustomerRequest 更新客户请求
type UpdateCustomerRequest struct {
	Name    *string `json:"name"`
	Status  *string `json:"status"`
	Country *string `json:"country"`
	City    *string `json:"city"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Notes   *string `json:"notes"`
}

// UpdateCustomer 更新客户
func (s *CustomerService) UpdateCustomer(ctx context.Context, actor Actor, id string, req *UpdateCustomerRequest) (*entity.Customer, error) {
	if err := requirePermission(actor, ActionEdit); err != nil {
		return nil, err
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.Archived {
		return nil, ErrInvalidTransition
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Status != nil {
		customer.Status = *req.Status
	}
	if req.Country != nil {
		customer.Country = *req.Country
	}
	if req.City != nil {
		customer.City = *req.City
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Notes != nil {
		customer.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// ArchiveCustomer 归档客户
func (s *CustomerService) ArchiveCustomer(ctx context.Context, actor Actor, id string) (*entity.Customer, error) {
	if err := requirePermission(actor, ActionArchive); err != nil {
		return nil, err
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.Archived {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	customer.Archived = true
	customer.ArchivedAt = &now

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// RestoreCustomer 从归档恢复客户
func (s *CustomerService) RestoreCustomer(ctx context.Context, actor Actor, id string) (*entity.Customer, error) {
	if err := requirePermission(actor, ActionRestore); err != nil {
		return nil, err
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !customer.Archived {
		return nil, ErrInvalidTransition
	}

	customer.Archived = false
	customer.ArchivedAt = nil

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer 删除客户（仅归档后）
func (s *CustomerService) DeleteCustomer(ctx context.Context, actor Actor, id string) error {
	if err := requirePermission(actor, ActionDelete); err != nil {
		return err
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !customer.Archived {
		return ErrInvalidTransition
	}

	return s.repo.Delete(ctx, customer.ID)
}
