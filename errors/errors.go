package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an AppError for callers and the HTTP layer.
type ErrorCode string

const (
	// Auth errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeMissingToken ErrorCode = "MISSING_TOKEN"

	// Request errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeRequiredField ErrorCode = "REQUIRED_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"

	// Business rule rejections
	ErrCodeConflict ErrorCode = "CONFLICT"
	ErrCodeState    ErrorCode = "STATE_ERROR"

	// Storage errors
	ErrCodePersistence ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeDBDuplicate ErrorCode = "DB_DUPLICATE"
)

// AppError carries a code, a message safe for display and the underlying cause.
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

// NewAppError creates a new AppError
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Validation(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, nil)
}

func Conflict(message string) *AppError {
	return NewAppError(ErrCodeConflict, message, nil)
}

func State(message string) *AppError {
	return NewAppError(ErrCodeState, message, nil)
}

// Persistence wraps a storage failure. The message stays generic; the cause is kept for logs.
func Persistence(op string, err error) *AppError {
	return NewAppError(ErrCodePersistence, op+" failed", err)
}

// IsAppError reports whether err is or wraps an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError returns the first AppError in err's chain, or nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

var (
	ErrUnauthorized = errors.New("unauthorized")

	// Storage
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("duplicate key")

	// Room errors
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomNotAvailable = errors.New("room not available")
	ErrRoomOccupied     = errors.New("room is occupied")

	// Folio errors
	ErrTransactionNotFound = errors.New("transaction not found")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
	ErrInvalidFormat   = errors.New("invalid format")
)
