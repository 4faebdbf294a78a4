package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeHTTPStatus ErrorType = "HTTP_STATUS"
	ErrTypeTimeout    ErrorType = "TIMEOUT"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeUnknown    ErrorType = "UNKNOWN"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// KindOf returns the ErrorType carried by err. Context deadline errors are
// reported as TIMEOUT even when they are not wrapped in an AppError.
func KindOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}
	return ErrTypeUnknown
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewHTTPStatusError creates an error for a non-2xx upstream response
func NewHTTPStatusError(url string, status int) *AppError {
	return NewAppError(ErrTypeHTTPStatus, fmt.Sprintf("unexpected status %d", status), nil).
		WithContext("url", url).
		WithContext("status", status)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return NewAppError(ErrTypeTimeout, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
