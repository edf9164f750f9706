package handler

import (
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// ShipmentHandler 发运单处理器
type ShipmentHandler struct {
	svc *service.ShipmentService
}

func NewShipmentHandler(svc *service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{svc: svc}
}

// ListShipments 发运单列表
// GET /api/v1/wms/shipments?customer_id=xxx&shipping_status=xxx&archived=true&search=xxx
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"customer_id":     c.Query("customer_id"),
		"shipping_status": c.Query("shipping_status"),
		"archived":        c.Query("archived"),
		"search":          c.Query("search"),
	}

	items, total, err := h.svc.ListShipments(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取发运单列表失败: "+err.Error())
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

// GetShipment 发运单详情
// GET /api/v1/wms/shipments/:id
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	shipment, err := h.svc.GetShipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		NotFound(c, "发运单不存在")
		return
	}
	Success(c, shipment)
}

// CreateShipment 创建发运单
// POST /api/v1/wms/shipments
func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	var req service.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	shipment, err := h.svc.CreateShipment(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		ServiceError(c, err, "创建发运单失败")
		return
	}
	Created(c, shipment)
}

// UpdateShipment 更新发运单
// PUT /api/v1/wms/shipments/:id
func (h *ShipmentHandler) UpdateShipment(c *gin.Context) {
	var req service.UpdateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	shipment, err := h.svc.UpdateShipment(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "更新发运单失败")
		return
	}
	Success(c, shipment)
}

// ArchiveShipment 归档发运单
// POST /api/v1/wms/shipments/:id/archive
func (h *ShipmentHandler) ArchiveShipment(c *gin.Context) {
	shipment, err := h.svc.ArchiveShipment(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		ServiceError(c, err, "归档发运单失败")
		return
	}
	Success(c, shipment)
}

// RestoreShipment 恢复发运单
// POST /api/v1/wms/shipments/:id/restore
func (h *ShipmentHandler) RestoreShipment(c *gin.Context) {
	shipment, err := h.svc.RestoreShipment(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		ServiceError(c, err, "恢复发运单失败")
		return
	}
	Success(c, shipment)
}

// DeleteShipment 删除发运单
// DELETE /api/v1/wms/shipments/:id
func (h *ShipmentHandler) DeleteShipment(c *gin.Context) {
	if err := h.svc.DeleteShipment(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		ServiceError(c, err, "删除发运单失败")
		return
	}
	Success(c, nil)
}

// BatchArchive 批量归档发运单
// POST /api/v1/wms/shipments/batch/archive
func (h *ShipmentHandler) BatchArchive(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	Success(c, h.svc.BatchArchive(c.Request.Context(), GetActor(c), req.IDs))
}

// BatchDelete 批量删除发运单
// POST /api/v1/wms/shipments/batch/delete
func (h *ShipmentHandler) BatchDelete(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	Success(c, h.svc.BatchDelete(c.Request.Context(), GetActor(c), req.IDs))
}
