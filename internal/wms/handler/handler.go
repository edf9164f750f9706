package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// Handlers WMS处理器集合
type Handlers struct {
	PO        *POHandler
	Supplier  *SupplierHandler
	Customer  *CustomerHandler
	Shipment  *ShipmentHandler
	Inventory *InventoryHandler
	Dashboard *DashboardHandler
}

// NewHandlers 创建WMS处理器集合
func NewHandlers(svcs *service.Services) *Handlers {
	return &Handlers{
		PO:        NewPOHandler(svcs.PO, svcs.Export, svcs.Attachment),
		Supplier:  NewSupplierHandler(svcs.Supplier),
		Customer:  NewCustomerHandler(svcs.Customer),
		Shipment:  NewShipmentHandler(svcs.Shipment),
		Inventory: NewInventoryHandler(svcs.Inventory),
		Dashboard: NewDashboardHandler(svcs.Dashboard),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError 把业务错误映射为HTTP响应，未识别的错误按fallback前缀走500
func ServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.Is(err, repository.ErrConflict):
		Conflict(c, "数据已被其他人修改，请刷新后重试")
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNothingToReceive),
		service.IsValidationError(err),
		service.IsQuantityError(err):
		BadRequest(c, err.Error())
	default:
		InternalError(c, fallback+": "+err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetActor 从JWT claims组装操作人
func GetActor(c *gin.Context) service.Actor {
	actor := service.Actor{UserID: GetUserID(c)}
	if roles, exists := c.Get("roles"); exists {
		if rs, ok := roles.([]string); ok {
			actor.Roles = rs
		}
	}
	return actor
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
