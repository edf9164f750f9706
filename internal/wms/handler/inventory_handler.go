package handler

import (
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// InventoryHandler 库存处理器
type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// ListItems 库存列表
// GET /api/v1/wms/inventory?search=xxx
func (h *InventoryHandler) ListItems(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.ListItems(c.Request.Context(), repository.InventoryListParams{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
	})
	if err != nil {
		InternalError(c, "获取库存列表失败: "+err.Error())
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

// GetItem 库存条目详情
// GET /api/v1/wms/inventory/:id
func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.svc.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		NotFound(c, "库存条目不存在")
		return
	}
	Success(c, item)
}

// CreateItem 创建库存条目
// POST /api/v1/wms/inventory
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.CreateItem(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		ServiceError(c, err, "创建库存条目失败")
		return
	}
	Created(c, item)
}

// UpdateItem 更新库存条目基本信息
// PUT /api/v1/wms/inventory/:id
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.UpdateItem(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "更新库存条目失败")
		return
	}
	Success(c, item)
}

// AdjustItem 手工调整库存
// POST /api/v1/wms/inventory/:id/adjust
func (h *InventoryHandler) AdjustItem(c *gin.Context) {
	var req service.AdjustItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	newQty, err := h.svc.AdjustItem(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "调整库存失败")
		return
	}
	Success(c, gin.H{"new_quantity": newQty})
}

// ListTransactions 库存交易流水
// GET /api/v1/wms/inventory/transactions?item_id=xxx
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.ListTransactions(c.Request.Context(), c.Query("item_id"), page, pageSize)
	if err != nil {
		InternalError(c, "获取库存流水失败: "+err.Error())
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
