package controller

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/auth"
	"courierhub/internal/commons"
	"courierhub/internal/domain"
	"courierhub/internal/dto"
	apperrors "courierhub/internal/errors"
)

type CourierService interface {
	GetOrCreate(ctx context.Context, userID string, name string) (*domain.Courier, error)
	SetOnline(ctx context.Context, courierID string, isOnline bool) (*domain.Courier, error)
	UpdateLocation(ctx context.Context, courierID string, lat, lng *float64) (*domain.Courier, error)
	UpdateProfile(ctx context.Context, courierID string, name *string, isOnline *bool) (*domain.Courier, error)
}

type CourierController struct {
	service CourierService
	logger  *zap.Logger
}

func NewCourierController(service CourierService, logger *zap.Logger) *CourierController {
	return &CourierController{
		service: service,
		logger:  logger,
	}
}

func (c *CourierController) GetCourier(w http.ResponseWriter, r *http.Request) {
	_, logger, courier, ok := c.resolve(w, r)
	if !ok {
		return
	}
	commons.WriteJSON(w, http.StatusOK, dto.NewCourierResponse(*courier), logger)
}

func (c *CourierController) UpdateCourier(w http.ResponseWriter, r *http.Request) {
	traceID, logger, courier, ok := c.resolve(w, r)
	if !ok {
		return
	}

	var req dto.UpdateCourierRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	updated, err := c.service.UpdateProfile(r.Context(), courier.ID, req.Name, req.IsOnline)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewCourierResponse(*updated), logger)
}

func (c *CourierController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID, logger, courier, ok := c.resolve(w, r)
	if !ok {
		return
	}

	var req dto.UpdateCourierStatusRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	if req.IsOnline == nil {
		commons.WriteValidationError(w, traceID, "isOnline is required", logger, apperrors.ValidationDetail{
			Field:   "isOnline",
			Message: "isOnline must be a boolean",
		})
		return
	}

	updated, err := c.service.SetOnline(r.Context(), courier.ID, *req.IsOnline)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewCourierResponse(*updated), logger)
}

func (c *CourierController) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	traceID, logger, courier, ok := c.resolve(w, r)
	if !ok {
		return
	}

	var req dto.UpdateCourierLocationRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	updated, err := c.service.UpdateLocation(r.Context(), courier.ID, req.Lat, req.Lng)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewCourierResponse(*updated), logger)
}

// resolve loads the caller's courier, creating it on first use.
func (c *CourierController) resolve(w http.ResponseWriter, r *http.Request) (string, *zap.Logger, *domain.Courier, bool) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	principal, ok := auth.FromContext(r.Context())
	if !ok {
		commons.WriteError(w, traceID, apperrors.NewUnauthorizedError("authentication required"), logger)
		return traceID, logger, nil, false
	}

	courier, err := c.service.GetOrCreate(r.Context(), principal.UserID, principal.Name)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return traceID, logger, nil, false
	}

	return traceID, logger.With(zap.String("courierId", courier.ID)), courier, true
}
