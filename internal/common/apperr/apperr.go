package apperr

import (
	"errors"
	"fmt"
)

// 业务错误分类（跨 directory / catalog / order / billing 复用）。
// 所有错误均可恢复：直接返回给调用方，由传输层决定呈现方式。

// ValidationError 入参非法（数量为 0、空订单无工时费等）。
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// Validationf 构造 ValidationError。
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError 引用的实体不存在（client / vehicle / part / order）。
type NotFoundError struct {
	Entity string // 实体名
	Key    string // 查询键（用户名、车牌、ID 等）
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// NotFound 构造 NotFoundError。
func NotFound(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// OwnershipMismatchError 车牌登记的车主与声明的客户不一致。
type OwnershipMismatchError struct {
	Plate    string
	ClientID string // 声明的客户
	OwnerID  string // 车牌实际登记的车主
}

func (e *OwnershipMismatchError) Error() string {
	return fmt.Sprintf("vehicle %s does not belong to client %s", e.Plate, e.ClientID)
}

// DuplicateError 唯一键冲突（车牌、SKU、用户名重复注册）。
type DuplicateError struct {
	Entity string
	Key    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.Key)
}

// InsufficientStockError 库存不足；仅在开票事务中产生，并使整个事务回滚。
type InsufficientStockError struct {
	SKU       string
	Required  int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for sku %s: required %d, available %d", e.SKU, e.Required, e.Available)
}

// AlreadyInvoicedError 订单已关闭或已有发票引用。
type AlreadyInvoicedError struct {
	OrderID string
}

func (e *AlreadyInvoicedError) Error() string {
	return fmt.Sprintf("order %s is already invoiced or closed", e.OrderID)
}

// IsNotFound 判断 err 是否为（或包装了）NotFoundError。
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation 判断 err 是否为 ValidationError。
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
