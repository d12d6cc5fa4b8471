package errors

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable machine-readable kind carried by every error
// response.
type ErrorCode string

const (
	// Auth errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidCode  ErrorCode = "INVALID_CODE"

	// Write conflicts
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeMonthClosed    ErrorCode = "MONTH_CLOSED"
	ErrCodeIdempotencyKey ErrorCode = "IDEMPOTENCY_KEY_CONFLICT"

	// Lookup errors
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeNoWithholding   ErrorCode = "WITHHOLDING_TABLE_MISSING"
	ErrCodeCompanyNotFound ErrorCode = "COMPANY_NOT_FOUND"

	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeRequiredField ErrorCode = "REQUIRED_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	ErrCodeInvalidCursor ErrorCode = "INVALID_CURSOR"

	// Database errors
	ErrCodeDBError     ErrorCode = "DB_ERROR"
	ErrCodeDBDuplicate ErrorCode = "DB_DUPLICATE"
)

// AppError carries a taxonomy code and a human message. The wrapped error is
// for logs only and never leaks into responses.
type AppError struct {
	Code    ErrorCode
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

// NewAppError creates a new AppError.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// GetAppError extracts an AppError from err, unwrapping as needed.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrMonthNotFound   = errors.New("month not found")
	ErrMonthClosed     = errors.New("month is closed")
)
