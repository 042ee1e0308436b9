package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError 是面向用户的业务错误，Code用于区分错误类型，Message可以直接展示给用户
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

const (
	ErrInvalidInput       = "INVALID_INPUT"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrForbidden          = "FORBIDDEN"
	ErrNotFound           = "NOT_FOUND"
	ErrConflict           = "CONFLICT"
	ErrInsufficientPoints = "INSUFFICIENT_POINTS"
	ErrSelfRefutation     = "SELF_REFUTATION"
	ErrBountyNotOpen      = "BOUNTY_NOT_OPEN"
	ErrBountyClosed       = "BOUNTY_CLOSED"
	ErrAlreadyRated       = "ALREADY_RATED"
	ErrInternal           = "INTERNAL"
)

var statusByCode = map[string]int{
	ErrInvalidInput:       http.StatusBadRequest,
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrNotFound:           http.StatusNotFound,
	ErrConflict:           http.StatusConflict,
	ErrInsufficientPoints: http.StatusUnprocessableEntity,
	ErrSelfRefutation:     http.StatusUnprocessableEntity,
	ErrBountyNotOpen:      http.StatusConflict,
	ErrBountyClosed:       http.StatusConflict,
	ErrAlreadyRated:       http.StatusConflict,
	ErrInternal:           http.StatusInternalServerError,
}

// As 从错误链中取出第一个AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode 判断错误链中是否包含指定Code的AppError
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// HTTPStatus 将错误映射为HTTP状态码，非AppError一律视为500
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := statusByCode[appErr.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Respond 把错误写成统一的JSON响应。内部错误不会把细节暴露给客户端。
func Respond(c *gin.Context, err error) {
	appErr, ok := As(err)
	if !ok || appErr.Code == ErrInternal {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误", "code": ErrInternal})
		return
	}
	c.JSON(HTTPStatus(err), gin.H{"error": appErr.Message, "code": appErr.Code})
}
