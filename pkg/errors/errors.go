package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 业务错误分类
type Kind string

const (
	KindValidation  Kind = "VALIDATION"  // 输入不合法，调用方可修正
	KindReferential Kind = "REFERENTIAL" // 引用的课程/学生/培养方案不存在
	KindConflict    Kind = "CONFLICT"    // 违反唯一性约束
	KindPermission  Kind = "PERMISSION"  // 操作不属于自己的实体
	KindNotFound    Kind = "NOT_FOUND"   // 读/改/删的目标不存在
	KindInternal    Kind = "INTERNAL"
)

// Error 带分类的业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 返回被包装的底层错误
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is 同类错误视为匹配，便于 errors.Is(err, ErrConflict) 这类判断
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// ── 分类哨兵（仅用于 errors.Is 判断） ──

var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrReferential = &Error{Kind: KindReferential}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrPermission  = &Error{Kind: KindPermission}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrInternal    = &Error{Kind: KindInternal}
)

// ── 构造函数 ──

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Referential(format string, args ...interface{}) *Error {
	return &Error{Kind: KindReferential, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Permission(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal 包装非预期错误，对外只暴露通用文案
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf 提取错误分类，非 *Error 一律视为内部错误
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf 提取面向用户的错误文案
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "服务器内部错误"
}

// HTTPStatus 错误分类对应的 HTTP 状态码
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindReferential:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
