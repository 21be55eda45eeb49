package errors

import (
	"fmt"
	"net/http"
)

// AppError is the error type returned across package boundaries. Handlers
// turn it into an HTTP status and a JSON body; clients decode it back.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError, deriving Retryable from the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// ServiceUnavailable reports a dependency that is temporarily down.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable).
		WithDetail("service", service)
}

// Timeout reports an operation that exceeded its deadline.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "the request took too long", http.StatusGatewayTimeout).
		WithDetail("operation", operation)
}

// NotFound reports a missing resource. The message reads "<resource> not found".
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// NoData reports a resource that exists but has nothing to analyze.
func NoData(resource, id string) *AppError {
	return New(ErrCodeNoData, "no data", http.StatusNotFound).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// AlreadyExists reports a unique constraint violation.
func AlreadyExists(resource string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource), http.StatusConflict).
		WithDetail("resource", resource)
}

// Conflict reports a request that clashes with current state.
func Conflict(reason string) *AppError {
	return New(ErrCodeConflict, reason, http.StatusConflict)
}

// InvalidInput reports a malformed request parameter.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("invalid input: %s", reason), http.StatusBadRequest)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation reports struct validation failures. fields maps field name to
// the failed rule.
func Validation(message string, fields map[string]string) *AppError {
	e := New(ErrCodeValidation, message, http.StatusBadRequest)
	if len(fields) > 0 {
		e.WithDetail("fields", fields)
	}
	return e
}

// TooLarge reports a request body over the configured limit.
func TooLarge(limit int64) *AppError {
	return New(ErrCodeTooLarge, "request body too large", http.StatusRequestEntityTooLarge).
		WithDetail("limit_bytes", limit)
}

// Unauthorized reports missing or rejected credentials.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "authentication required"
	}
	return New(ErrCodeUnauthorized, reason, http.StatusUnauthorized)
}

// TokenExpired reports an expired bearer token.
func TokenExpired() *AppError {
	return New(ErrCodeTokenExpired, "session expired, log in again", http.StatusUnauthorized)
}

// InvalidToken reports a bearer token that failed verification.
func InvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "invalid authentication token", http.StatusUnauthorized)
}

// Internal wraps an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "an unexpected error occurred", http.StatusInternalServerError).
		WithCause(cause)
}

// DatabaseError wraps a failure of the relational store.
func DatabaseError(cause error) *AppError {
	return New(ErrCodeDatabaseError, "a database error occurred", http.StatusInternalServerError).
		WithCause(cause)
}

// StorageError wraps a failure of the object or file store.
func StorageError(op string, cause error) *AppError {
	return New(ErrCodeStorageError, "a storage error occurred", http.StatusBadGateway).
		WithDetail("operation", op).
		WithCause(cause)
}
