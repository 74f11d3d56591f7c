package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		err      *AppError
		expected int
	}{
		{ValidationFailed("assetId", "is required"), http.StatusBadRequest},
		{InvalidJSONError(fmt.Errorf("eof")), http.StatusBadRequest},
		{NotFoundError("asset"), http.StatusNotFound},
		{DuplicateKey("serialNumber"), http.StatusConflict},
		{ConflictError("asset"), http.StatusConflict},
		{UnauthorizedError("missing token"), http.StatusUnauthorized},
		{ForbiddenError("admin only"), http.StatusForbidden},
		{UnavailableError("report archive"), http.StatusServiceUnavailable},
		{ExternalServiceError("s3", fmt.Errorf("denied")), http.StatusBadGateway},
		{NewAppError(ErrorCodeRateLimited, "slow down"), http.StatusTooManyRequests},
		{NewAppError(ErrorCodeTimeout, "too slow"), http.StatusRequestTimeout},
		{DatabaseError("query failed", fmt.Errorf("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.err.GetHTTPStatus(), string(tt.err.Code))
	}
}

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("employeeEmail", "is required")

	assert.Equal(t, "employeeEmail", err.Field)
	assert.Equal(t, "employeeEmail: is required", err.Message)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(err.ToJSON(), &body))
	assert.Equal(t, "employeeEmail", body["field"])
	assert.Equal(t, string(ErrorCodeValidation), body["code"])
}

func TestDuplicateKeyMessages(t *testing.T) {
	assert.Equal(t, "Serial Number already exists. Please use a unique serial number.", DuplicateKey("serialNumber").Message)
	assert.Equal(t, "Asset ID already exists. Please use a unique asset ID.", DuplicateKey("assetId").Message)
	assert.Equal(t, "duplicate value for name", DuplicateKey("name").Message)
}

func TestAsAppErrorAndWrap(t *testing.T) {
	inner := NotFoundError("asset")
	wrapped := fmt.Errorf("lookup: %w", inner)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)
	assert.True(t, HasCode(wrapped, ErrorCodeNotFound))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrorCodeNotFound))

	assert.Same(t, inner, WrapError(wrapped, "ignored"))
	generic := WrapError(fmt.Errorf("plain"), "something failed")
	assert.Equal(t, ErrorCodeInternal, generic.Code)
}
