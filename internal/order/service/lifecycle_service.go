package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/domain"
	"courierhub/internal/dto"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/metrics"
)

const dateLayout = "2006-01-02"

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type OrderRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, order domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	LockForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status domain.OrderStatus, updatedAt time.Time) (bool, error)
	Update(ctx context.Context, tx *sql.Tx, id string, patch domain.OrderPatch, updatedAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	ListByCourier(ctx context.Context, courierID string) ([]domain.Order, error)
	ListActive(ctx context.Context, courierID string) ([]domain.Order, error)
	ListHistory(ctx context.Context, courierID string, filter domain.OrderHistoryFilter) ([]domain.Order, error)
	Stats(ctx context.Context, courierID string, from, to time.Time) (domain.OrderStats, error)
}

type OrderItemRepository interface {
	InsertAll(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error
	ReplaceAll(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error
}

// Notifier receives committed order changes. Implementations must not block.
type Notifier interface {
	NotifyNewOrder(order domain.Order)
	NotifyOrderUpdated(order domain.Order)
}

type AllStats struct {
	Daily   domain.OrderStats
	Weekly  domain.OrderStats
	Monthly domain.OrderStats
}

type LifecycleService struct {
	tx       Transactor
	orders   OrderRepository
	items    OrderItemRepository
	notifier Notifier
	location *time.Location
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewLifecycleService(
	tx Transactor,
	orders OrderRepository,
	items OrderItemRepository,
	notifier Notifier,
	location *time.Location,
	timeout time.Duration,
	logger *zap.Logger,
) *LifecycleService {
	if location == nil {
		location = time.Local
	}
	return &LifecycleService{
		tx:       tx,
		orders:   orders,
		items:    items,
		notifier: notifier,
		location: location,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// CreateOrder validates req and stores a new order assigned to courierID.
func (s *LifecycleService) CreateOrder(ctx context.Context, courierID string, req dto.CreateOrderRequest) (*domain.Order, error) {
	order, err := buildOrder(req)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	order.ID = s.newID()
	order.CourierID = &courierID
	order.CreatedAt = now
	order.UpdatedAt = now

	err = s.withinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.orders.Insert(ctx, tx, order); err != nil {
			return err
		}
		return s.items.InsertAll(ctx, tx, order.ID, order.Items)
	})
	if err != nil {
		s.logger.Error("failed to create order", zap.String("courierId", courierID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("orderId", order.ID),
		zap.String("orderNumber", order.OrderNumber),
		zap.String("courierId", courierID),
	)
	s.notifier.NotifyNewOrder(order)

	return &order, nil
}

// TransitionStatus moves the order to target. Any target is accepted unless
// the order is already delivered.
func (s *LifecycleService) TransitionStatus(ctx context.Context, orderID string, target string) (*domain.Order, error) {
	var f fieldErrors
	status := f.status(target)
	if err := f.err("invalid status"); err != nil {
		metrics.RecordTransition(target, "invalid")
		return nil, err
	}

	var from domain.OrderStatus
	err := s.withinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		current, err := s.orders.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		from = current.Status
		if current.Status.IsTerminal() {
			return errors.NewConflictError(fmt.Sprintf("order %s is already delivered", orderID))
		}

		applied, err := s.orders.UpdateStatus(ctx, tx, orderID, status, nextUpdatedAt(s.now(), current.UpdatedAt))
		if err != nil {
			return err
		}
		if !applied {
			return errors.NewConflictError(fmt.Sprintf("order %s is already delivered", orderID))
		}
		return nil
	})
	if err != nil {
		metrics.RecordTransition(status.String(), transitionOutcome(err))
		return nil, err
	}

	metrics.RecordTransition(status.String(), "applied")
	s.logger.Info("order status changed",
		zap.String("orderId", orderID),
		zap.String("from", from.String()),
		zap.String("to", status.String()),
	)

	return s.reloadAndNotify(ctx, orderID)
}

// UpdateOrder applies a partial update. A status in the patch follows the
// same terminal rule as TransitionStatus.
func (s *LifecycleService) UpdateOrder(ctx context.Context, orderID string, req dto.UpdateOrderRequest) (*domain.Order, error) {
	patch, err := buildPatch(req)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, orderID, patch)
}

// UpdateOrderLocation moves the restaurant or customer pin of the order.
func (s *LifecycleService) UpdateOrderLocation(ctx context.Context, orderID string, req dto.UpdateOrderLocationRequest) (*domain.Order, error) {
	var f fieldErrors
	markerType := domain.MarkerType(req.Type)
	if !markerType.IsValid() {
		f.add("type", "type must be one of restaurant, customer")
	}
	lat := f.latitude("lat", req.Lat)
	lng := f.longitude("lng", req.Lng)
	if err := f.err("invalid location"); err != nil {
		return nil, err
	}

	var patch domain.OrderPatch
	if markerType == domain.MarkerRestaurant {
		patch.RestaurantLat, patch.RestaurantLng = &lat, &lng
	} else {
		patch.CustomerLat, patch.CustomerLng = &lat, &lng
	}

	return s.applyPatch(ctx, orderID, patch)
}

func (s *LifecycleService) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	s.logger.Info("order deleted", zap.String("orderId", orderID))
	return nil
}

func (s *LifecycleService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

func (s *LifecycleService) ListOrders(ctx context.Context, courierID string) ([]domain.Order, error) {
	return s.orders.ListByCourier(ctx, courierID)
}

// GetActiveOrders returns every order of the courier not yet delivered, oldest first.
func (s *LifecycleService) GetActiveOrders(ctx context.Context, courierID string) ([]domain.Order, error) {
	return s.orders.ListActive(ctx, courierID)
}

func (s *LifecycleService) GetOrderHistory(ctx context.Context, courierID string, q dto.OrderHistoryQuery) ([]domain.Order, error) {
	filter, err := parseHistoryFilter(q, s.location)
	if err != nil {
		return nil, err
	}
	return s.orders.ListHistory(ctx, courierID, filter)
}

// GetStats aggregates the orders created since the start of period, in the
// configured time zone.
func (s *LifecycleService) GetStats(ctx context.Context, courierID string, period domain.StatsPeriod) (domain.OrderStats, error) {
	if !period.IsValid() {
		return domain.OrderStats{}, errors.NewValidationError("invalid period", errors.ValidationDetail{
			Field:   "period",
			Message: "period must be one of day, week, month",
		})
	}

	now := s.now().In(s.location)
	from := period.PeriodStart(now)

	return s.orders.Stats(ctx, courierID, from.UTC(), now.UTC())
}

func (s *LifecycleService) GetAllStats(ctx context.Context, courierID string) (AllStats, error) {
	var (
		all AllStats
		err error
	)
	if all.Daily, err = s.GetStats(ctx, courierID, domain.PeriodDay); err != nil {
		return AllStats{}, err
	}
	if all.Weekly, err = s.GetStats(ctx, courierID, domain.PeriodWeek); err != nil {
		return AllStats{}, err
	}
	if all.Monthly, err = s.GetStats(ctx, courierID, domain.PeriodMonth); err != nil {
		return AllStats{}, err
	}
	return all, nil
}

func (s *LifecycleService) applyPatch(ctx context.Context, orderID string, patch domain.OrderPatch) (*domain.Order, error) {
	err := s.withinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		current, err := s.orders.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if patch.Status != nil && current.Status.IsTerminal() {
			return errors.NewConflictError(fmt.Sprintf("order %s is already delivered", orderID))
		}

		payment := current.PaymentMethod
		if patch.PaymentMethod != nil {
			payment = *patch.PaymentMethod
		}
		if payment == domain.PaymentCard && (patch.PaymentMethod != nil || patch.NeedsChange != nil) {
			noChange := false
			patch.NeedsChange = &noChange
		}

		if patch.Items != nil {
			if err := s.items.ReplaceAll(ctx, tx, orderID, *patch.Items); err != nil {
				return err
			}
		}

		applied, err := s.orders.Update(ctx, tx, orderID, patch, nextUpdatedAt(s.now(), current.UpdatedAt))
		if err != nil {
			return err
		}
		if !applied {
			return errors.NewConflictError(fmt.Sprintf("order %s is already delivered", orderID))
		}
		return nil
	})
	if err != nil {
		if patch.Status != nil {
			metrics.RecordTransition(patch.Status.String(), transitionOutcome(err))
		}
		return nil, err
	}

	if patch.Status != nil {
		metrics.RecordTransition(patch.Status.String(), "applied")
	}
	s.logger.Info("order updated", zap.String("orderId", orderID))

	return s.reloadAndNotify(ctx, orderID)
}

func (s *LifecycleService) reloadAndNotify(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		s.logger.Error("failed to reload order after update", zap.String("orderId", orderID), zap.Error(err))
		return nil, err
	}

	s.notifier.NotifyOrderUpdated(*order)
	return order, nil
}

func (s *LifecycleService) withinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.tx.WithinTx(ctx, fn)
}

// timestamp is the current time at the storage precision.
func (s *LifecycleService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt returns now at storage precision, or one microsecond past prev
// when the clock has not moved beyond it.
func nextUpdatedAt(now time.Time, prev time.Time) time.Time {
	next := now.UTC().Truncate(time.Microsecond)
	if !next.After(prev) {
		next = prev.UTC().Add(time.Microsecond)
	}
	return next
}

func transitionOutcome(err error) string {
	switch {
	case isConflict(err):
		return "rejected"
	case isNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}

func isConflict(err error) bool {
	_, ok := errors.IsConflictError(err)
	return ok
}

func isNotFound(err error) bool {
	_, ok := errors.IsNotFoundError(err)
	return ok
}

func parseHistoryFilter(q dto.OrderHistoryQuery, loc *time.Location) (domain.OrderHistoryFilter, error) {
	var (
		f      fieldErrors
		filter domain.OrderHistoryFilter
	)

	if status := strings.TrimSpace(q.Status); status != "" && status != "all" {
		s := f.status(status)
		filter.Status = &s
	}

	filter.CustomerName = strings.TrimSpace(q.CustomerName)

	if q.DateFrom != "" {
		from, _, err := parseDate(q.DateFrom, loc)
		if err != nil {
			f.add("dateFrom", "dateFrom must be an RFC 3339 timestamp or YYYY-MM-DD")
		} else {
			from = from.UTC()
			filter.DateFrom = &from
		}
	}

	if q.DateTo != "" {
		to, dateOnly, err := parseDate(q.DateTo, loc)
		if err != nil {
			f.add("dateTo", "dateTo must be an RFC 3339 timestamp or YYYY-MM-DD")
		} else {
			if dateOnly {
				to = to.AddDate(0, 0, 1).Add(-time.Microsecond)
			}
			to = to.UTC()
			filter.DateTo = &to
		}
	}

	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		f.add("dateFrom", "dateFrom must not be after dateTo")
	}

	if err := f.err("invalid history filter"); err != nil {
		return domain.OrderHistoryFilter{}, err
	}

	return filter, nil
}

// parseDate accepts RFC 3339 or a calendar date, which is read as local
// midnight in loc.
func parseDate(value string, loc *time.Location) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
