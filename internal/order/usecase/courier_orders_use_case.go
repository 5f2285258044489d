package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"courierhub/internal/domain"
	"courierhub/internal/dto"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/mysql"
	"courierhub/internal/order/service"
)

type CourierResolver interface {
	GetOrCreate(ctx context.Context, userID string, name string) (*domain.Courier, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, courierID string, req dto.CreateOrderRequest) (*domain.Order, error)
	TransitionStatus(ctx context.Context, orderID string, target string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, orderID string, req dto.UpdateOrderRequest) (*domain.Order, error)
	UpdateOrderLocation(ctx context.Context, orderID string, req dto.UpdateOrderLocationRequest) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, courierID string) ([]domain.Order, error)
	GetActiveOrders(ctx context.Context, courierID string) ([]domain.Order, error)
	GetOrderHistory(ctx context.Context, courierID string, q dto.OrderHistoryQuery) ([]domain.Order, error)
	GetAllStats(ctx context.Context, courierID string) (service.AllStats, error)
}

// CourierOrdersUseCase scopes order operations to the caller's courier.
type CourierOrdersUseCase struct {
	couriers         CourierResolver
	orders           OrderService
	logger           *zap.Logger
	maxRetryAttempts int
	backoff          time.Duration
}

func NewCourierOrdersUseCase(
	couriers CourierResolver,
	orders OrderService,
	logger *zap.Logger,
	maxRetryAttempts int,
) *CourierOrdersUseCase {
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &CourierOrdersUseCase{
		couriers:         couriers,
		orders:           orders,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		backoff:          100 * time.Millisecond,
	}
}

func (uc *CourierOrdersUseCase) Courier(ctx context.Context, p domain.Principal) (*domain.Courier, error) {
	return uc.couriers.GetOrCreate(ctx, p.UserID, p.Name)
}

// AssertOwnsOrder loads the order and fails with Forbidden unless it belongs
// to the caller's courier.
func (uc *CourierOrdersUseCase) AssertOwnsOrder(ctx context.Context, p domain.Principal, orderID string) (*domain.Courier, *domain.Order, error) {
	courier, err := uc.Courier(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	order, err := uc.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	if !order.BelongsTo(courier.ID) {
		uc.logger.Warn("order access denied",
			zap.String("orderId", orderID),
			zap.String("courierId", courier.ID),
		)
		return nil, nil, errors.NewForbiddenError(fmt.Sprintf("order %s does not belong to the current courier", orderID))
	}

	return courier, order, nil
}

func (uc *CourierOrdersUseCase) CreateOrder(ctx context.Context, p domain.Principal, req dto.CreateOrderRequest) (*domain.Order, error) {
	courier, err := uc.Courier(ctx, p)
	if err != nil {
		return nil, err
	}
	return uc.orders.CreateOrder(ctx, courier.ID, req)
}

func (uc *CourierOrdersUseCase) ListOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	courier, err := uc.Courier(ctx, p)
	if err != nil {
		return nil, err
	}
	return uc.orders.ListOrders(ctx, courier.ID)
}

func (uc *CourierOrdersUseCase) ActiveOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	courier, err := uc.Courier(ctx, p)
	if err != nil {
		return nil, err
	}
	return uc.orders.GetActiveOrders(ctx, courier.ID)
}

func (uc *CourierOrdersUseCase) OrderHistory(ctx context.Context, p domain.Principal, q dto.OrderHistoryQuery) ([]domain.Order, error) {
	courier, err := uc.Courier(ctx, p)
	if err != nil {
		return nil, err
	}
	return uc.orders.GetOrderHistory(ctx, courier.ID, q)
}

func (uc *CourierOrdersUseCase) Stats(ctx context.Context, p domain.Principal) (service.AllStats, error) {
	courier, err := uc.Courier(ctx, p)
	if err != nil {
		return service.AllStats{}, err
	}
	return uc.orders.GetAllStats(ctx, courier.ID)
}

func (uc *CourierOrdersUseCase) TransitionStatus(ctx context.Context, p domain.Principal, orderID string, target string) (*domain.Order, error) {
	if _, _, err := uc.AssertOwnsOrder(ctx, p, orderID); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func() (*domain.Order, error) {
		return uc.orders.TransitionStatus(ctx, orderID, target)
	})
}

func (uc *CourierOrdersUseCase) UpdateOrder(ctx context.Context, p domain.Principal, orderID string, req dto.UpdateOrderRequest) (*domain.Order, error) {
	if _, _, err := uc.AssertOwnsOrder(ctx, p, orderID); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func() (*domain.Order, error) {
		return uc.orders.UpdateOrder(ctx, orderID, req)
	})
}

func (uc *CourierOrdersUseCase) UpdateOrderLocation(ctx context.Context, p domain.Principal, orderID string, req dto.UpdateOrderLocationRequest) (*domain.Order, error) {
	if _, _, err := uc.AssertOwnsOrder(ctx, p, orderID); err != nil {
		return nil, err
	}
	return uc.withRetry(ctx, orderID, func() (*domain.Order, error) {
		return uc.orders.UpdateOrderLocation(ctx, orderID, req)
	})
}

func (uc *CourierOrdersUseCase) DeleteOrder(ctx context.Context, p domain.Principal, orderID string) error {
	if _, _, err := uc.AssertOwnsOrder(ctx, p, orderID); err != nil {
		return err
	}
	return uc.orders.DeleteOrder(ctx, orderID)
}

// withRetry reruns fn while the database reports a deadlock, with a growing
// jittered backoff between attempts.
func (uc *CourierOrdersUseCase) withRetry(ctx context.Context, orderID string, fn func() (*domain.Order, error)) (*domain.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= uc.maxRetryAttempts; attempt++ {
		order, err := fn()
		if err == nil {
			return order, nil
		}
		if !mysql.IsDeadlock(err) {
			return nil, err
		}
		lastErr = err

		if attempt == uc.maxRetryAttempts {
			break
		}

		base := uc.backoff * time.Duration(attempt)
		jitter := time.Duration(float64(base) * (rand.Float64()*0.4 - 0.2))
		uc.logger.Warn("deadlock detected, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", uc.maxRetryAttempts),
			zap.String("orderId", orderID),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(base + jitter):
		}
	}

	uc.logger.Error("giving up after repeated deadlocks", zap.String("orderId", orderID), zap.Error(lastErr))
	return nil, lastErr
}
