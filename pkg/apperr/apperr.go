package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误分类
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 业务错误，携带分类、业务码和可选的字段错误
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Fields  []FieldError
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

// Validation 参数校验错误
func Validation(code int, msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg, Fields: fields}
}

// NotFound 资源不存在
func NotFound(code int, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

// Conflict 业务冲突（库存不足、重复等）
func Conflict(code int, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

// Unauthorized 认证失败
func Unauthorized(code int, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: msg}
}

// Forbidden 无权限
func Forbidden(code int, msg string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: msg}
}

// Internal 包装内部错误
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf 返回错误分类，非 *Error 视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As 取出 *Error
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is 判断错误是否属于某分类
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
