package apperrors

import (
	"net/http"
)

// AppError 自定义错误类型
type AppError struct {
	Code    int
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode 创建通用业务错误
func WithCode(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// BusinessError 封装业务逻辑错误（通用）
func BusinessError(code int, message string) *AppError {
	return WithCode(code, message)
}

// InvalidRequestError 封装参数校验错误
func InvalidRequestError(message string) *AppError {
	return WithCode(http.StatusBadRequest, message)
}

// InvalidRequestErrorDefault 默认参数校验错误
func InvalidRequestErrorDefault() *AppError {
	return WithCode(http.StatusBadRequest, "Parameter verification failed")
}

// InvalidKeyFormatError 自定义短键格式错误
func InvalidKeyFormatError(message string) *AppError {
	return WithCode(http.StatusBadRequest, message)
}

// KeyInUseError 短键已被占用
func KeyInUseError() *AppError {
	return WithCode(http.StatusConflict, "error.key_already_in_use")
}

// NotFoundError 短链不存在
func NotFoundError() *AppError {
	return WithCode(http.StatusNotFound, "error.not_found")
}

// ExpiredError 短链已过期（与 NotFound 区分，前端展示专门提示）
func ExpiredError() *AppError {
	return WithCode(http.StatusGone, "error.expired")
}

// ForbiddenError 非归属者操作
func ForbiddenError() *AppError {
	return WithCode(http.StatusForbidden, "error.forbidden")
}

// EncodingFailedError 二维码渲染失败。创建流程对此降级处理，不中断
func EncodingFailedError(cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: "error.qr_encoding_failed",
		Cause:   cause,
	}
}

// StorageUnavailableError 存储超时/不可用，可重试
func StorageUnavailableError(cause error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Message: "error.storage_unavailable",
		Cause:   cause,
	}
}

// SystemError 封装系统内部错误
func SystemError(message string) *AppError {
	return WithCode(http.StatusInternalServerError, message)
}

// SystemErrorDefault 默认系统内部错误
func SystemErrorDefault() *AppError {
	return WithCode(http.StatusInternalServerError, "error.system")
}
