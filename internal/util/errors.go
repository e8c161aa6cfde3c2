package util

import (
	"errors"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeRateLimit           = "RATE_LIMIT_EXCEEDED"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeInvalidCode         = "INVALID_VERIFICATION_CODE"
	ErrCodeTokenInvalid        = "TOKEN_INVALID"
	ErrCodeAccountFrozen       = "ACCOUNT_FROZEN"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeMarketUnavailable   = "MARKET_UNAVAILABLE"
	ErrCodeBusy                = "RESOURCE_BUSY"
)

// NewAppError creates a new application error
func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewAppErrorWithDetails creates a new application error with details
func NewAppErrorWithDetails(statusCode int, code, message, details string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// Common error constructors

func ErrBadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, ErrCodeBadRequest, message)
}

func ErrUnauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, ErrCodeNotFound, message)
}

func ErrConflict(message string) *AppError {
	return NewAppError(http.StatusConflict, ErrCodeConflict, message)
}

func ErrValidation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, ErrCodeValidation, message)
}

func ErrRateLimit(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, ErrCodeRateLimit, message)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// ErrInsufficientBalance reports a balance too small for the request
func ErrInsufficientBalance(message string) *AppError {
	return NewAppError(http.StatusBadRequest, ErrCodeInsufficientBalance, message)
}

// ErrAccountFrozen rejects mutations on frozen accounts
func ErrAccountFrozen() *AppError {
	return NewAppError(http.StatusForbidden, ErrCodeAccountFrozen, "Account is frozen")
}

// ErrBusy reports that a per-user lock could not be acquired in time
func ErrBusy() *AppError {
	return NewAppError(http.StatusConflict, ErrCodeBusy, "Another request for this account is in progress, retry shortly")
}

// Internal wraps an unexpected error so it is logged but not leaked.
// err may be nil when there is no underlying cause.
func Internal(message string, err error) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrCodeInternal,
		Message:    message,
		Err:        err,
	}
}
