package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/auth"
	"courierhub/internal/commons"
	"courierhub/internal/domain"
	"courierhub/internal/dto"
	apperrors "courierhub/internal/errors"
	"courierhub/internal/order/service"
)

type CourierOrdersUseCase interface {
	CreateOrder(ctx context.Context, p domain.Principal, req dto.CreateOrderRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error)
	ActiveOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error)
	OrderHistory(ctx context.Context, p domain.Principal, q dto.OrderHistoryQuery) ([]domain.Order, error)
	Stats(ctx context.Context, p domain.Principal) (service.AllStats, error)
	TransitionStatus(ctx context.Context, p domain.Principal, orderID string, target string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, p domain.Principal, orderID string, req dto.UpdateOrderRequest) (*domain.Order, error)
	UpdateOrderLocation(ctx context.Context, p domain.Principal, orderID string, req dto.UpdateOrderLocationRequest) (*domain.Order, error)
	DeleteOrder(ctx context.Context, p domain.Principal, orderID string) error
}

type OrderController struct {
	useCase CourierOrdersUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase CourierOrdersUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	orders, err := c.useCase.ListOrders(r.Context(), principal)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewOrderListResponse(orders), logger)
}

func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	order, err := c.useCase.CreateOrder(r.Context(), principal, req)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.NewOrderResponse(*order), logger)
}

func (c *OrderController) Active(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	orders, err := c.useCase.ActiveOrders(r.Context(), principal)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewOrderListResponse(orders), logger)
}

func (c *OrderController) History(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	orders, err := c.useCase.OrderHistory(r.Context(), principal, dto.OrderHistoryQuery{
		Status:       q.Get("status"),
		CustomerName: q.Get("customerName"),
		DateFrom:     q.Get("dateFrom"),
		DateTo:       q.Get("dateTo"),
	})
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewOrderListResponse(orders), logger)
}

func (c *OrderController) Stats(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	stats, err := c.useCase.Stats(r.Context(), principal)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.OrderStatsResponse{
		Daily:   dto.NewPeriodStats(stats.Daily),
		Weekly:  dto.NewPeriodStats(stats.Weekly),
		Monthly: dto.NewPeriodStats(stats.Monthly),
	}, logger)
}

func (c *OrderController) Update(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	order, err := c.useCase.UpdateOrder(r.Context(), principal, chi.URLParam(r, "id"), req)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewOrderResponse(*order), logger)
}

func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	var req dto.UpdateOrderStatusRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	orderID := chi.URLParam(r, "id")
	order, err := c.useCase.TransitionStatus(r.Context(), principal, orderID, req.Status)
	if err != nil {
		logger.Info("status transition rejected",
			zap.String("orderId", orderID),
			zap.String("target", req.Status),
			zap.Error(err),
		)
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewOrderResponse(*order), logger)
}

func (c *OrderController) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	var req dto.UpdateOrderLocationRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	order, err := c.useCase.UpdateOrderLocation(r.Context(), principal, chi.URLParam(r, "id"), req)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewOrderResponse(*order), logger)
}

func (c *OrderController) Delete(w http.ResponseWriter, r *http.Request) {
	traceID, logger, principal, ok := c.begin(w, r)
	if !ok {
		return
	}

	if err := c.useCase.DeleteOrder(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.SuccessResponse{Success: true}, logger)
}

func (c *OrderController) begin(w http.ResponseWriter, r *http.Request) (string, *zap.Logger, domain.Principal, bool) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	principal, ok := auth.FromContext(r.Context())
	if !ok {
		commons.WriteError(w, traceID, apperrors.NewUnauthorizedError("authentication required"), logger)
		return traceID, logger, domain.Principal{}, false
	}

	return traceID, logger.With(zap.String("userId", principal.UserID)), *principal, true
}
