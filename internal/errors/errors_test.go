package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "feed missing")
	assert.Equal(t, "feed missing", err.Error())

	var target *APIError
	assert.True(t, errors.As(error(err), &target))
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{{Field: "q", Message: "q must be at most 200 characters"}})

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, details.Errors, 1)
	assert.Equal(t, "q", details.Errors[0].Field)
}

func TestRefreshFailedError(t *testing.T) {
	details := map[string]string{"works": "timeout", "expenses": "status 500"}
	err := RefreshFailedError(details)

	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.Equal(t, details, err.Details)
}

func TestExportError(t *testing.T) {
	err := ExportError("xlsx", errors.New("disk full"))

	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "EXPORT_FAILED", err.ErrorCode)
	assert.Equal(t, "Failed to generate xlsx export", err.Message)
	assert.Equal(t, "disk full", err.Details)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadGateway, TypeUpstream, "Upstream Feed Unavailable", "status 503", "/api/refresh").
		WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, TypeUpstream, out["type"])
	assert.Equal(t, float64(http.StatusBadGateway), out["status"])
	assert.Equal(t, "/api/refresh", out["instance"])
	assert.Equal(t, "abc-123", out["trace_id"])
}

func TestProblemDetails_ExtensionsCannotOverrideStandardFields(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "").
		WithExtension("status", 200)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, float64(http.StatusNotFound), out["status"])
	assert.NotContains(t, out, "detail")
}
