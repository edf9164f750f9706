package service

import (
	"errors"
	"fmt"
)

// 业务错误分类。handler按类别映射HTTP状态码，批量操作只做收集不上抛。
var (
	// ErrInvalidTransition 当前状态不允许该操作
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
	// ErrForbidden 角色无权限
	ErrForbidden = errors.New("没有权限执行该操作")
	// ErrNothingToReceive 收货载荷为空或全为零
	ErrNothingToReceive = errors.New("没有可收货的行项")
)

// ValidationError 字段校验错误，携带字段名供调用方重新提示
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError 构造字段校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// QuantityExceedsRemainingError 超量收货，携带行项与剩余量供调用方修正
type QuantityExceedsRemainingError struct {
	InventoryItemID string
	Requested       float64
	Remaining       float64
}

func (e *QuantityExceedsRemainingError) Error() string {
	return fmt.Sprintf("收货数量超出剩余量: 物料%s 请求%.4f 剩余%.4f", e.InventoryItemID, e.Requested, e.Remaining)
}

// IsValidationError 判断是否为字段校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsQuantityError 判断是否为超量收货错误
func IsQuantityError(err error) bool {
	var qe *QuantityExceedsRemainingError
	return errors.As(err, &qe)
}
