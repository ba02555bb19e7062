package errors

import (
	"fmt"
)

// ErrorCode 错误码
type ErrorCode int

const (
	// 通用错误码 1000-1999
	ErrSuccess         ErrorCode = 0
	ErrInternalServer  ErrorCode = 1000
	ErrInvalidParam    ErrorCode = 1001
	ErrUnauthorized    ErrorCode = 1002
	ErrForbidden       ErrorCode = 1003
	ErrNotFound        ErrorCode = 1004
	ErrTooManyRequests ErrorCode = 1006

	// 支付相关错误码 2000-2999
	ErrUnsupportedPaymentMethod ErrorCode = 2000
	ErrUnsupportedRefundMethod  ErrorCode = 2001
	ErrUnsupportedChannel       ErrorCode = 2002
	ErrPaymentDisabled          ErrorCode = 2003
	ErrChargeNotFound           ErrorCode = 2004
	ErrInvalidSignature         ErrorCode = 2005
	ErrGatewayRequest           ErrorCode = 2006
	ErrPathNotRegistered        ErrorCode = 2007

	// 数据库错误码 3000-3999
	ErrDatabaseQuery  ErrorCode = 3000
	ErrDatabaseInsert ErrorCode = 3001
	ErrDatabaseUpdate ErrorCode = 3002
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HTTPStatus 错误码对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrUnsupportedPaymentMethod, ErrUnsupportedRefundMethod,
		ErrUnsupportedChannel, ErrPaymentDisabled, ErrInvalidSignature,
		ErrInvalidParam:
		return 400
	case ErrUnauthorized:
		return 401
	case ErrForbidden:
		return 403
	case ErrNotFound, ErrChargeNotFound, ErrPathNotRegistered:
		return 404
	case ErrTooManyRequests:
		return 429
	default:
		return 500
	}
}
