package marker

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/auth"
	"courierhub/internal/commons"
	"courierhub/internal/domain"
	"courierhub/internal/dto"
	apperrors "courierhub/internal/errors"
)

type Controller struct {
	useCase UseCase
	logger  *zap.Logger
}

func NewController(useCase UseCase, logger *zap.Logger) *Controller {
	return &Controller{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *Controller) HandleList(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	resp, err := c.useCase.ListMarkers(r.Context(), principal, r.URL.Query().Get("type"))
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, resp, logger)
}

func (c *Controller) HandleCreate(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	var req CreateMarkerRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	resp, err := c.useCase.CreateMarker(r.Context(), principal, req)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, resp, logger)
}

func (c *Controller) HandleMove(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	var req MoveMarkerRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	resp, err := c.useCase.MoveMarker(r.Context(), principal, chi.URLParam(r, "id"), req)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, resp, logger)
}

func (c *Controller) HandleDelete(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	if err := c.useCase.DeleteMarker(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.SuccessResponse{Success: true}, logger)
}

func (c *Controller) begin(w http.ResponseWriter, r *http.Request) (string, *zap.Logger, domain.Principal, bool) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	principal, ok := auth.FromContext(r.Context())
	if !ok {
		commons.WriteError(w, traceID, apperrors.NewUnauthorizedError("authentication required"), logger)
		return traceID, logger, domain.Principal{}, false
	}

	return traceID, logger.With(zap.String("userId", principal.UserID)), *principal, true
}
