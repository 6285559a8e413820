// Package apperr 定义订单履约核心的错误分类。
//
// 服务层返回 *Error，处理器按 Kind 映射为响应；仓储层的哨兵错误在服务层被包装。
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindInternal Kind = iota
	// KindValidation 输入格式错误，未访问存储即被拒绝
	KindValidation
	// KindPermission 非管理员调用特权操作
	KindPermission
	// KindConflict 状态前置条件不满足，调用方可重新读取后决定
	KindConflict
	// KindInsufficientStock 库存不足，需补货，不自动重试
	KindInsufficientStock
	// KindStoreUnavailable 存储暂时不可用，可退避重试
	KindStoreUnavailable
	// KindOrderNotFound 订单不存在
	KindOrderNotFound
	// KindInvalidState 订单状态不允许该操作
	KindInvalidState
	// KindNotFound 订单以外的资源不存在
	KindNotFound
)

var kindNames = map[Kind]string{
	KindInternal:          "internal",
	KindValidation:        "validation",
	KindPermission:        "permission",
	KindConflict:          "conflict",
	KindInsufficientStock: "insufficient_stock",
	KindStoreUnavailable:  "store_unavailable",
	KindOrderNotFound:     "order_not_found",
	KindInvalidState:      "invalid_state",
	KindNotFound:          "not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error 带类别的业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 创建包装了底层原因的业务错误
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf 返回错误链中第一个业务错误的类别，非业务错误视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message 返回可展示给用户的消息
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
