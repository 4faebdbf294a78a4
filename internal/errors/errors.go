package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError is an error that already knows its HTTP status and code. The
// ErrorHandler turns it into a problem response.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError is one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of a validation failure
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// New creates a new APIError
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	e := New(statusCode, errorCode, message)
	e.Details = details
	return e
}

// ErrDataNotLoaded answers export requests made before the first
// successful fetch of either feed
var ErrDataNotLoaded = New(http.StatusServiceUnavailable, "DATA_NOT_LOADED", "Dashboard data has not been loaded yet")

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// NewValidationErrors creates a validation failure listing every rejected field
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}

// RefreshFailedError reports a manual refresh in which every feed failed;
// details carries the per-feed results
func RefreshFailedError(details interface{}) *APIError {
	return NewWithDetails(http.StatusBadGateway, "REFRESH_FAILED", "All feeds failed to refresh", details)
}

// ExportError creates an export error
func ExportError(format string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "EXPORT_FAILED", fmt.Sprintf("Failed to generate %s export", format), err.Error())
}
