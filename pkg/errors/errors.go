// Package errors is the application error taxonomy shared by the API layer.
// Domain errors are classified here; HTTP status codes are chosen by api/response.
package errors

import (
	"errors"
	"fmt"

	"savoria/domain/delivery"
	"savoria/domain/payment"
	"savoria/domain/shared"
	"savoria/domain/user"
)

// ErrorCode is the machine readable code returned to clients.
type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeTooLarge       ErrorCode = "PAYLOAD_TOO_LARGE"

	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeInvalidState      ErrorCode = "INVALID_STATE"
	CodeGateway           ErrorCode = "GATEWAY_ERROR"

	// Refinements of INVALID_STATE clients commonly branch on.
	CodeDriverUnavailable ErrorCode = "DRIVER_UNAVAILABLE"
	CodeSlipOutstanding   ErrorCode = "SLIP_OUTSTANDING"
	CodeNotRefundable     ErrorCode = "NOT_REFUNDABLE"
	CodeUserNotActive     ErrorCode = "USER_NOT_ACTIVE"
)

// AppError is an error with a code and a message safe to show to clients.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError      { return New(CodeBadRequest, message) }
func NotFound(message string) *AppError        { return New(CodeNotFound, message) }
func Internal(message string) *AppError        { return New(CodeInternal, message) }
func Unauthorized(message string) *AppError    { return New(CodeUnauthorized, message) }
func Forbidden(message string) *AppError       { return New(CodeForbidden, message) }
func Conflict(message string) *AppError        { return New(CodeConflict, message) }
func TooManyRequests(message string) *AppError { return New(CodeTooManyRequest, message) }
func Validation(message string) *AppError      { return New(CodeValidation, message) }

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// reasonCodes are checked before the generic classes; the first match wins.
var reasonCodes = []struct {
	reason error
	code   ErrorCode
}{
	{delivery.ErrDriverUnavailable, CodeDriverUnavailable},
	{payment.ErrSlipOutstanding, CodeSlipOutstanding},
	{payment.ErrNotRefundable, CodeNotRefundable},
	{user.ErrUserNotActive, CodeUserNotActive},
}

var classCodes = []struct {
	class error
	code  ErrorCode
}{
	{shared.ErrNotFound, CodeNotFound},
	{shared.ErrConflict, CodeConflict},
	{shared.ErrInvalidTransition, CodeInvalidTransition},
	{shared.ErrInvalidState, CodeInvalidState},
	{shared.ErrInvalidInput, CodeValidation},
	{shared.ErrGateway, CodeGateway},
}

// FromDomainError classifies err with errors.Is. Unclassified errors become
// INTERNAL_ERROR with a generic message; the original stays in Err for logs.
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, rc := range reasonCodes {
		if errors.Is(err, rc.reason) {
			return Wrap(err, rc.code, err.Error())
		}
	}
	for _, cc := range classCodes {
		if errors.Is(err, cc.class) {
			return Wrap(err, cc.code, err.Error())
		}
	}
	return Wrap(err, CodeInternal, "internal server error")
}
