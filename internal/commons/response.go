package commons

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"courierhub/internal/dto"
	apperrors "courierhub/internal/errors"
)

const supersededMessage = "logged in on another device"

func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteValidationError(w http.ResponseWriter, traceID string, message string, logger *zap.Logger, details ...apperrors.ValidationDetail) {
	if details == nil {
		details = []apperrors.ValidationDetail{}
	}
	WriteJSON(w, http.StatusBadRequest, dto.ValidationErrorResponse{
		TraceID: traceID,
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	}, logger)
}

// WriteError maps a typed application error onto its HTTP status. Anything
// unrecognised is logged and reported as a generic 500.
func WriteError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, traceID, ve.Message, logger, ve.Details...)
		return
	}

	if _, ok := apperrors.IsInvalidCredentialsError(err); ok {
		writeErrorResponse(w, traceID, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), logger)
		return
	}

	if _, ok := apperrors.IsSessionSupersededError(err); ok {
		writeErrorResponse(w, traceID, http.StatusUnauthorized, "SESSION_SUPERSEDED", supersededMessage, logger)
		return
	}

	if _, ok := apperrors.IsUnauthorizedError(err); ok {
		writeErrorResponse(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), logger)
		return
	}

	if _, ok := apperrors.IsForbiddenError(err); ok {
		writeErrorResponse(w, traceID, http.StatusForbidden, "FORBIDDEN", err.Error(), logger)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), logger)
		return
	}

	if _, ok := apperrors.IsConflictError(err); ok {
		writeErrorResponse(w, traceID, http.StatusConflict, "CONFLICT", err.Error(), logger)
		return
	}

	if _, ok := apperrors.IsStorageUnavailableError(err); ok {
		logger.Error("storage unavailable", zap.Error(err))
		writeErrorResponse(w, traceID, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "service temporarily unavailable", logger)
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", logger)
}

func writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code string, message string, logger *zap.Logger) {
	WriteJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Message:   message,
		Code:      code,
		Timestamp: time.Now().UTC(),
	}, logger)
}

// DecodeJSON decodes the request body into dst. On failure it writes the
// validation response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, traceID string, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		WriteValidationError(w, traceID, "invalid JSON body", logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}
	return true
}
