package commons

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"courierhub/internal/dto"
	apperrors "courierhub/internal/errors"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid credentials", apperrors.NewInvalidCredentialsError(), http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"superseded", apperrors.NewSessionSupersededError("u-1"), http.StatusUnauthorized, "SESSION_SUPERSEDED"},
		{"unauthorized", apperrors.NewUnauthorizedError("not authenticated"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", apperrors.NewForbiddenError("order belongs to another courier"), http.StatusForbidden, "FORBIDDEN"},
		{"not found", apperrors.NewNotFoundError("order not found"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", apperrors.NewConflictError("order already delivered"), http.StatusConflict, "CONFLICT"},
		{"storage", apperrors.NewStorageUnavailableError("storage unavailable", errors.New("dial tcp")), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, "trace-1", tt.err, zap.NewNop())

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, "trace-1", resp.TraceID)
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestWriteError_SupersededMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "t", apperrors.NewSessionSupersededError("u-1"), zap.NewNop())

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "logged in on another device", resp.Message)
}

func TestWriteError_InternalCauseNotLeaked(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "t", errors.New("password=hunter2"), zap.NewNop())

	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestWriteError_ValidationKeepsAllDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperrors.NewValidationError("validation failed",
		apperrors.ValidationDetail{Field: "orderNumber", Message: "orderNumber is required"},
		apperrors.ValidationDetail{Field: "customerLat", Message: "customerLat is required"},
	)
	WriteError(rec, "t", err, zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error)
	assert.Len(t, resp.Details, 2)
}

func TestDecodeJSON_InvalidBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))

	var dst dto.LoginRequest
	ok := DecodeJSON(rec, req, &dst, "t", zap.NewNop())

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"body"`)
}
