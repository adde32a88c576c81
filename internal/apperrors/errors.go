package apperrors

import (
	"errors"
	"fmt"
)

// Kind 错误类别
// API 层根据类别映射 HTTP 状态码
type Kind string

const (
	KindNotFound      Kind = "not_found"      // 引用的实体不存在
	KindConflict      Kind = "conflict"       // 并发冲突或存在子节点时删除
	KindInvalidState  Kind = "invalid_state"  // 当前生命周期状态不允许该操作
	KindAuthorization Kind = "authorization"  // 角色不匹配
	KindConfiguration Kind = "configuration"  // 审批矩阵缺失或无效
	KindValidation    Kind = "validation"     // 输入不合法
)

// Error 结构化业务错误
// 所有业务错误在 API 边界可恢复,聚合状态保持不变
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建业务错误
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound 引用的实体不存在
func NotFound(entity string, id string) *Error {
	return New(KindNotFound, "%s not found: %s", entity, id)
}

// Conflict 并发冲突或引用约束冲突
func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

// InvalidState 当前状态不允许该操作
func InvalidState(format string, args ...interface{}) *Error {
	return New(KindInvalidState, format, args...)
}

// Authorization 角色不匹配
func Authorization(format string, args ...interface{}) *Error {
	return New(KindAuthorization, format, args...)
}

// Configuration 审批矩阵配置错误
func Configuration(format string, args ...interface{}) *Error {
	return New(KindConfiguration, format, args...)
}

// Validation 输入校验失败
func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

// KindOf 提取错误类别,非业务错误返回空串
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
