package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// POHandler 采购订单处理器
type POHandler struct {
	svc       *service.POService
	exportSvc *service.ExportService
	attachSvc *service.AttachmentService
}

func NewPOHandler(svc *service.POService, exportSvc *service.ExportService, attachSvc *service.AttachmentService) *POHandler {
	return &POHandler{svc: svc, exportSvc: exportSvc, attachSvc: attachSvc}
}

// ListPOs 采购订单列表
// GET /api/v1/wms/purchase-orders?supplier_id=xxx&status=xxx&archived=true&search=xxx
func (h *POHandler) ListPOs(c *gin.Context) {
	page, pageSize := GetPagination(c)

	params := repository.POListParams{
		Page:       page,
		PageSize:   pageSize,
		SupplierID: c.Query("supplier_id"),
		Status:     c.Query("status"),
		Search:     c.Query("search"),
	}
	// 默认只看未归档；archived=true 看归档，archived=all 看全部
	switch c.Query("archived") {
	case "true":
		v := true
		params.Archived = &v
	case "all":
	default:
		v := false
		params.Archived = &v
	}

	items, total, err := h.svc.ListPOs(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取采购订单列表失败: "+err.Error())
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

// GetPO 采购订单详情
// GET /api/v1/wms/purchase-orders/:id
func (h *POHandler) GetPO(c *gin.Context) {
	po, err := h.svc.GetPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		NotFound(c, "采购订单不存在")
		return
	}
	Success(c, po)
}

// CreatePO 创建采购订单
// POST /api/v1/wms/purchase-orders
func (h *POHandler) CreatePO(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.CreatePO(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		ServiceError(c, err, "创建采购订单失败")
		return
	}
	Created(c, po)
}

// UpdatePO 更新采购订单
// PUT /api/v1/wms/purchase-orders/:id
func (h *POHandler) UpdatePO(c *gin.Context) {
	var req service.UpdatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.UpdatePO(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "更新采购订单失败")
		return
	}
	Success(c, po)
}

// transition 生命周期端点的统一包装
func (h *POHandler) transition(c *gin.Context, op func(actor service.Actor, id string, req *service.TransitionRequest) error) {
	var req service.TransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "参数错误: "+err.Error())
			return
		}
	}

	if err := op(GetActor(c), c.Param("id"), &req); err != nil {
		ServiceError(c, err, "操作失败")
		return
	}
}

// SubmitPO 提交审批
// POST /api/v1/wms/purchase-orders/:id/submit
func (h *POHandler) SubmitPO(c *gin.Context) {
	h.transition(c, func(actor service.Actor, id string, req *service.TransitionRequest) error {
		po, err := h.svc.SubmitForApproval(c.Request.Context(), actor, id, req)
		if err == nil {
			Success(c, po)
		}
		return err
	})
}

// ApprovePO 审批通过
// POST /api/v1/wms/purchase-orders/:id/approve
func (h *POHandler) ApprovePO(c *gin.Context) {
	h.transition(c, func(actor service.Actor, id string, req *service.TransitionRequest) error {
		po, err := h.svc.Approve(c.Request.Context(), actor, id, req)
		if err == nil {
			Success(c, po)
		}
		return err
	})
}

// RejectPO 驳回
// POST /api/v1/wms/purchase-orders/:id/reject
func (h *POHandler) RejectPO(c *gin.Context) {
	h.transition(c, func(actor service.Actor, id string, req *service.TransitionRequest) error {
		po, err := h.svc.Reject(c.Request.Context(), actor, id, req)
		if err == nil {
			Success(c, po)
		}
		return err
	})
}

// OrderPO 下单
// POST /api/v1/wms/purchase-orders/:id/order
func (h *POHandler) OrderPO(c *gin.Context) {
	h.transition(c, func(actor service.Actor, id string, req *service.TransitionRequest) error {
		po, err := h.svc.MarkAsOrdered(c.Request.Context(), actor, id, req)
		if err == nil {
			Success(c, po)
		}
		return err
	})
}

// CancelPO 取消
// POST /api/v1/wms/purchase-orders/:id/cancel
func (h *POHandler) CancelPO(c *gin.Context) {
	h.transition(c, func(actor service.Actor, id string, req *service.TransitionRequest) error {
		po, err := h.svc.Cancel(c.Request.Context(), actor, id, req)
		if err == nil {
			Success(c, po)
		}
		return err
	})
}

// ArchivePO 归档
// POST /api/v1/wms/purchase-orders/:id/archive
func (h *POHandler) ArchivePO(c *gin.Context) {
	h.transition(c, func(actor service.Actor, id string, req *service.TransitionRequest) error {
		po, err := h.svc.Archive(c.Request.Context(), actor, id, req)
		if err == nil {
			Success(c, po)
		}
		return err
	})
}

// RestorePO 从归档恢复
// POST /api/v1/wms/purchase-orders/:id/restore
func (h *POHandler) RestorePO(c *gin.Context) {
	h.transition(c, func(actor service.Actor, id string, req *service.TransitionRequest) error {
		po, err := h.svc.Restore(c.Request.Context(), actor, id, req)
		if err == nil {
			Success(c, po)
		}
		return err
	})
}

// DeletePO 硬删除
// DELETE /api/v1/wms/purchase-orders/:id
func (h *POHandler) DeletePO(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		ServiceError(c, err, "删除采购订单失败")
		return
	}
	Success(c, nil)
}

// PurgePO 永久删除归档订单
// DELETE /api/v1/wms/purchase-orders/:id/purge
func (h *POHandler) PurgePO(c *gin.Context) {
	if err := h.svc.PermanentlyDelete(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		ServiceError(c, err, "永久删除失败")
		return
	}
	Success(c, nil)
}

// ReceivePO 收货对账
// POST /api/v1/wms/purchase-orders/:id/receive
func (h *POHandler) ReceivePO(c *gin.Context) {
	var req service.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, deltas, err := h.svc.Receive(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "收货失败")
		return
	}

	Success(c, gin.H{
		"purchase_order":   po,
		"inventory_deltas": deltas,
	})
}

// RecordPayment 记录付款
// POST /api/v1/wms/purchase-orders/:id/payments
func (h *POHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.RecordPayment(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "记录付款失败")
		return
	}
	Created(c, po)
}

// UpdateShippingStatus 更新物流标签
// PUT /api/v1/wms/purchase-orders/:id/shipping-status
func (h *POHandler) UpdateShippingStatus(c *gin.Context) {
	var req service.UpdateShippingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.UpdateShippingStatus(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "更新物流状态失败")
		return
	}
	Success(c, po)
}

// batch 批量端点的统一包装
func (h *POHandler) batch(c *gin.Context, op func(actor service.Actor, ids []string) *service.BatchResult) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		BadRequest(c, "ids不能为空")
		return
	}

	Success(c, op(GetActor(c), req.IDs))
}

// BatchArchive 批量归档
// POST /api/v1/wms/purchase-orders/batch/archive
func (h *POHandler) BatchArchive(c *gin.Context) {
	h.batch(c, func(actor service.Actor, ids []string) *service.BatchResult {
		return h.svc.BatchArchive(c.Request.Context(), actor, ids)
	})
}

// BatchRestore 批量恢复
// POST /api/v1/wms/purchase-orders/batch/restore
func (h *POHandler) BatchRestore(c *gin.Context) {
	h.batch(c, func(actor service.Actor, ids []string) *service.BatchResult {
		return h.svc.BatchRestore(c.Request.Context(), actor, ids)
	})
}

// BatchCancel 批量取消
// POST /api/v1/wms/purchase-orders/batch/cancel
func (h *POHandler) BatchCancel(c *gin.Context) {
	h.batch(c, func(actor service.Actor, ids []string) *service.BatchResult {
		return h.svc.BatchCancel(c.Request.Context(), actor, ids)
	})
}

// BatchDelete 批量删除
// POST /api/v1/wms/purchase-orders/batch/delete
func (h *POHandler) BatchDelete(c *gin.Context) {
	h.batch(c, func(actor service.Actor, ids []string) *service.BatchResult {
		return h.svc.BatchDelete(c.Request.Context(), actor, ids)
	})
}

// BatchOrder 批量下单
// POST /api/v1/wms/purchase-orders/batch/order
func (h *POHandler) BatchOrder(c *gin.Context) {
	h.batch(c, func(actor service.Actor, ids []string) *service.BatchResult {
		return h.svc.BatchMarkAsOrdered(c.Request.Context(), actor, ids)
	})
}

// ExportPOs 导出采购订单台账
// GET /api/v1/wms/purchase-orders/export
func (h *POHandler) ExportPOs(c *gin.Context) {
	params := repository.POListParams{
		SupplierID: c.Query("supplier_id"),
		Status:     c.Query("status"),
		Search:     c.Query("search"),
	}
	if c.Query("archived") != "all" {
		v := c.Query("archived") == "true"
		params.Archived = &v
	}

	buf, err := h.exportSvc.ExportPORegister(c.Request.Context(), GetActor(c), params)
	if err != nil {
		ServiceError(c, err, "导出失败")
		return
	}

	fileName := fmt.Sprintf("purchase-orders-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// UploadAttachment 上传附件
// POST /api/v1/wms/purchase-orders/:id/attachments
func (h *POHandler) UploadAttachment(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "缺少上传文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		InternalError(c, "读取上传文件失败: "+err.Error())
		return
	}
	defer src.Close()

	att, err := h.attachSvc.Upload(c.Request.Context(), GetActor(c), c.Param("id"),
		src, file.Filename, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		ServiceError(c, err, "上传附件失败")
		return
	}
	Created(c, att)
}

// ListAttachments 附件列表
// GET /api/v1/wms/purchase-orders/:id/attachments
func (h *POHandler) ListAttachments(c *gin.Context) {
	atts, err := h.attachSvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err, "获取附件列表失败")
		return
	}
	Success(c, atts)
}

// DownloadAttachment 附件下载链接
// GET /api/v1/wms/purchase-orders/:id/attachments/:attachmentId/url
func (h *POHandler) DownloadAttachment(c *gin.Context) {
	url, err := h.attachSvc.PresignedURL(c.Request.Context(), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		ServiceError(c, err, "生成下载链接失败")
		return
	}
	Success(c, gin.H{"url": url})
}
