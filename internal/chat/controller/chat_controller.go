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
)

// OrderAccess checks that the caller's courier owns an order.
type OrderAccess interface {
	AssertOwnsOrder(ctx context.Context, p domain.Principal, orderID string) (*domain.Courier, *domain.Order, error)
}

type ChatService interface {
	PostMessage(ctx context.Context, orderID, senderID string, senderType domain.SenderType, content string) (*domain.Message, error)
	ListMessages(ctx context.Context, orderID string, reader domain.SenderType) ([]domain.Message, error)
	UnreadCount(ctx context.Context, orderID string, forParty domain.SenderType) (int, error)
}

type ChatController struct {
	access  OrderAccess
	service ChatService
	logger  *zap.Logger
}

func NewChatController(access OrderAccess, service ChatService, logger *zap.Logger) *ChatController {
	return &ChatController{
		access:  access,
		service: service,
		logger:  logger,
	}
}

func (c *ChatController) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger, _, orderID, ok := c.begin(w, r)
	if !ok {
		return
	}

	messages, err := c.service.ListMessages(r.Context(), orderID, domain.SenderCourier)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewMessageListResponse(messages), logger)
}

func (c *ChatController) Post(w http.ResponseWriter, r *http.Request) {
	traceID, logger, courier, orderID, ok := c.begin(w, r)
	if !ok {
		return
	}

	var req dto.PostMessageRequest
	if !commons.DecodeJSON(w, r, &req, traceID, logger) {
		return
	}

	msg, err := c.service.PostMessage(r.Context(), orderID, courier.ID, domain.SenderCourier, req.Content)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.NewMessageResponse(*msg), logger)
}

func (c *ChatController) Unread(w http.ResponseWriter, r *http.Request) {
	traceID, logger, _, orderID, ok := c.begin(w, r)
	if !ok {
		return
	}

	count, err := c.service.UnreadCount(r.Context(), orderID, domain.SenderCourier)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.UnreadCountResponse{Count: count}, logger)
}

// begin authenticates the request and checks ownership of the order in the path.
func (c *ChatController) begin(w http.ResponseWriter, r *http.Request) (string, *zap.Logger, *domain.Courier, string, bool) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	principal, ok := auth.FromContext(r.Context())
	if !ok {
		commons.WriteError(w, traceID, apperrors.NewUnauthorizedError("authentication required"), logger)
		return traceID, logger, nil, "", false
	}

	orderID := chi.URLParam(r, "id")
	logger = logger.With(zap.String("userId", principal.UserID), zap.String("orderId", orderID))

	courier, _, err := c.access.AssertOwnsOrder(r.Context(), *principal, orderID)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return traceID, logger, nil, "", false
	}

	return traceID, logger, courier, orderID, true
}
