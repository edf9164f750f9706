package handler

import (
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// CustomerHandler 客户处理器
type CustomerHandler struct {
	svc *service.CustomerService
}

func NewCustomerHandler(svc *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// ListCustomers 客户列表
// GET /api/v1/wms/customers?status=xxx&archived=true&search=xxx
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":   c.Query("status"),
		"archived": c.Query("archived"),
		"search":   c.Query("search"),
	}

	items, total, err := h.svc.ListCustomers(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取客户列表失败: "+err.Error())
		return
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// GetCustomer 客户详情
// GET /api/v1/wms/customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.svc.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		NotFound(c, "客户不存在")
		return
	}
	Success(c, customer)
}

// CreateCustomer 创建客户
// POST /api/v1/wms/customers
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	customer, err := h.svc.CreateCustomer(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		ServiceError(c, err, "创建客户失败")
		return
	}
	Created(c, customer)
}

// UpdateCustomer 更新客户
// PUT /api/v1/wms/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req service.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	customer, err := h.svc.UpdateCustomer(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "更新客户失败")
		return
	}
	Success(c, customer)
}

// ArchiveCustomer 归档客户
// POST /api/v1/wms/customers/:id/archive
func (h *CustomerHandler) ArchiveCustomer(c *gin.Context) {
	customer, err := h.svc.ArchiveCustomer(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		ServiceError(c, err, "归档客户失败")
		return
	}
	Success(c, customer)
}

// RestoreCustomer 恢复客户
// POST /api/v1/wms/customers/:id/restore
func (h *CustomerHandler) RestoreCustomer(c *gin.Context) {
	customer, err := h.svc.RestoreCustomer(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		ServiceError(c, err, "恢复客户失败")
		return
	}
	Success(c, customer)
}

// DeleteCustomer 删除客户
// DELETE /api/v1/wms/customers/:id
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.svc.DeleteCustomer(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		ServiceError(c, err, "删除客户失败")
		return
	}
	Success(c, nil)
}

// BatchArchive 批量归档客户
// POST /api/v1/wms/customers/batch/archive
func (h *CustomerHandler) BatchArchive(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	Success(c, h.svc.BatchArchive(c.Request.Context(), GetActor(c), req.IDs))
}

// BatchDelete 批量删除客户
// POST /api/v1/wms/customers/batch/delete
func (h *CustomerHandler) BatchDelete(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	Success(c, h.svc.BatchDelete(c.Request.Context(), GetActor(c), req.IDs))
}
