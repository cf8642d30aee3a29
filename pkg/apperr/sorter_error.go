package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Source errors
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeAddressBookMissing = "ADDRESS_BOOK_MISSING"

	// Record errors
	CodeInvalidRecord = "INVALID_RECORD"
	CodeNotFound      = "NOT_FOUND"

	// Write errors
	CodeWriteFailed   = "WRITE_FAILED"
	CodeDatabaseError = "DATABASE_ERROR"
	CodePublishFailed = "PUBLISH_FAILED"

	// Internal errors
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
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

// Is matches on code so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// StoreUnavailable is fatal: the run cannot start without its message store.
func StoreUnavailable(path string, err error) *AppError {
	return &AppError{
		Code:    CodeStoreUnavailable,
		Message: fmt.Sprintf("message store unavailable: %s", path),
		Status:  http.StatusServiceUnavailable,
		Details: map[string]any{"path": path},
		Err:     err,
	}
}

// AddressBookMissing is degraded: extraction continues with zero matches.
func AddressBookMissing(dir string, err error) *AppError {
	return &AppError{
		Code:    CodeAddressBookMissing,
		Message: fmt.Sprintf("address book not readable: %s", dir),
		Status:  http.StatusOK,
		Details: map[string]any{"dir": dir},
		Err:     err,
	}
}

func InvalidRecord(id, reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidRecord,
		Message: fmt.Sprintf("invalid record %s: %s", id, reason),
		Status:  http.StatusUnprocessableEntity,
		Details: map[string]any{"id": id},
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// WriteFailed marks a per-record write that exhausted its retries.
func WriteFailed(contactID string, err error) *AppError {
	return &AppError{
		Code:    CodeWriteFailed,
		Message: fmt.Sprintf("write failed for %s", contactID),
		Status:  http.StatusInternalServerError,
		Details: map[string]any{"contact_id": contactID},
		Err:     err,
	}
}

func DatabaseError(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: fmt.Sprintf("database error: %s", operation),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func PublishFailed(stream string, err error) *AppError {
	return &AppError{
		Code:    CodePublishFailed,
		Message: fmt.Sprintf("publish failed: %s", stream),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"stream": stream},
		Err:     err,
	}
}

func Internal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

func InternalWithError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func ConfigError(message string) *AppError {
	return &AppError{
		Code:    CodeConfigError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// Common error instances
var (
	ErrNotFound         = NotFound("resource")
	ErrStoreUnavailable = New(CodeStoreUnavailable, "message store unavailable", http.StatusServiceUnavailable)
	ErrWriteFailed      = New(CodeWriteFailed, "write failed", http.StatusInternalServerError)
)

// Helper functions
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalWithError(err)
}

func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
