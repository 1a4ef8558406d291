package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorJSONRendering(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		httpStatus int
		contains   string
	}{
		{
			name:       "validation error without details",
			err:        NewValidationError("project name is required"),
			httpStatus: http.StatusBadRequest,
			contains:   "project name is required",
		},
		{
			name:       "validation error with details",
			err:        NewValidationError("invalid project record", "totalAmount must be a number"),
			httpStatus: http.StatusBadRequest,
			contains:   "invalid project record",
		},
		{
			name:       "not found error",
			err:        NewNotFoundError("project", "does-not-exist"),
			httpStatus: http.StatusNotFound,
			contains:   "project not found",
		},
		{
			name:       "rate limit error",
			err:        NewRateLimitError("60"),
			httpStatus: http.StatusTooManyRequests,
			contains:   "Rate limit exceeded",
		},
		{
			name:       "timeout error without cause",
			err:        NewTimeoutError("Request timeout", nil),
			httpStatus: http.StatusGatewayTimeout,
			contains:   "Request timeout",
		},
		{
			name:       "internal error",
			err:        NewInternalError("database unavailable", fmt.Errorf("disk full")),
			httpStatus: http.StatusInternalServerError,
			contains:   "Internal server error",
		},
		{
			name: "validation error map",
			err: NewValidationErrorWithMap(map[string]string{
				"name": "must not be blank",
			}),
			httpStatus: http.StatusBadRequest,
			contains:   "Multiple validation errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)

			body, err := json.Marshal(tt.err)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.contains)
		})
	}
}

func TestAppErrorJSONHasCause(t *testing.T) {
	body, err := json.Marshal(NewNotFoundError("project", "abc"))
	require.NoError(t, err)

	var rendered map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &rendered))
	assert.Equal(t, "project not found", rendered["Cause"])
	assert.Equal(t, "project not found", rendered["message"])
}

func TestAppErrorErrorString(t *testing.T) {
	assert.Equal(t, "[VALIDATION_ERROR] bad input", NewValidationError("bad input").Error())
	assert.Equal(t, "[NOT_FOUND] project not found", NewNotFoundError("project", "x").Error())
	assert.Equal(t, "[RATE_LIMIT_EXCEEDED] Rate limit exceeded", NewRateLimitError("1").Error())
}

func TestToAppError(t *testing.T) {
	t.Run("passes through app errors", func(t *testing.T) {
		original := NewNotFoundError("project", "abc")
		assert.Same(t, original, ToAppError(original))
	})

	t.Run("maps timeouts", func(t *testing.T) {
		converted := ToAppError(fmt.Errorf("context deadline exceeded"))
		assert.Equal(t, CategoryTimeout, converted.Category)
		assert.Equal(t, http.StatusGatewayTimeout, converted.HTTPStatus)
	})

	t.Run("defaults to internal", func(t *testing.T) {
		converted := ToAppError(fmt.Errorf("something broke"))
		assert.Equal(t, CategoryInternal, converted.Category)

		body, err := json.Marshal(converted)
		require.NoError(t, err)
		assert.Contains(t, string(body), "Internal server error")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToAppError(nil))
	})
}
