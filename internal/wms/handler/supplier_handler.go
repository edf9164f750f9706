package handler

import (
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// SupplierHandler 供应商处理器
type SupplierHandler struct {
	svc *service.SupplierService
}

func NewSupplierHandler(svc *service.SupplierService) *SupplierHandler {
	return &SupplierHandler{svc: svc}
}

// ListSuppliers 供应商列表
// GET /api/v1/wms/suppliers?status=xxx&archived=true&search=xxx
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":   c.Query("status"),
		"archived": c.Query("archived"),
		"search":   c.Query("search"),
	}

	items, total, err := h.svc.ListSuppliers(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取供应商列表失败: "+err.Error())
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

// GetSupplier 供应商详情
// GET /api/v1/wms/suppliers/:id
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.svc.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		NotFound(c, "供应商不存在")
		return
	}
	Success(c, supplier)
}

// CreateSupplier 创建供应商
// POST /api/v1/wms/suppliers
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	supplier, err := h.svc.CreateSupplier(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		ServiceError(c, err, "创建供应商失败")
		return
	}
	Created(c, supplier)
}

// UpdateSupplier 更新供应商
// PUT /api/v1/wms/suppliers/:id
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	var req service.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	supplier, err := h.svc.UpdateSupplier(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "更新供应商失败")
		return
	}
	Success(c, supplier)
}

// ArchiveSupplier 归档供应商
// POST /api/v1/wms/suppliers/:id/archive
func (h *SupplierHandler) ArchiveSupplier(c *gin.Context) {
	supplier, err := h.svc.ArchiveSupplier(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		ServiceError(c, err, "归档供应商失败")
		return
	}
	Success(c, supplier)
}

// RestoreSupplier 恢复供应商
// POST /api/v1/wms/suppliers/:id/restore
func (h *SupplierHandler) RestoreSupplier(c *gin.Context) {
	supplier, err := h.svc.RestoreSupplier(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		ServiceError(c, err, "恢复供应商失败")
		return
	}
	Success(c, supplier)
}

// DeleteSupplier 删除供应商
// DELETE /api/v1/wms/suppliers/:id
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	if err := h.svc.DeleteSupplier(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		ServiceError(c, err, "删除供应商失败")
		return
	}
	Success(c, nil)
}

// BatchArchive 批量归档供应商
// POST /api/v1/wms/suppliers/batch/archive
func (h *SupplierHandler) BatchArchive(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	Success(c, h.svc.BatchArchive(c.Request.Context(), GetActor(c), req.IDs))
}

// BatchDelete 批量删除供应商
// POST /api/v1/wms/suppliers/batch/delete
func (h *SupplierHandler) BatchDelete(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	Success(c, h.svc.BatchDelete(c.Request.Context(), GetActor(c), req.IDs))
}
