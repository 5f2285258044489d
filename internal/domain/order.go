package domain

import "time"

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNew, OrderStatusAccepted, OrderStatusInTransit, OrderStatusDelivered:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

func (p PaymentMethod) IsValid() bool {
	return p == PaymentCash || p == PaymentCard
}

type Order struct {
	ID          string
	OrderNumber string
	CourierID   *string

	RestaurantName    string
	RestaurantAddress string
	RestaurantLat     float64
	RestaurantLng     float64
	RestaurantCompany *string
	RestaurantComment *string

	CustomerName    string
	CustomerID      *string
	CustomerPhone   *string
	CustomerAddress string
	CustomerLat     float64
	CustomerLng     float64
	HouseNumber     *string
	Apartment       *string
	Floor           *string
	BuildingInfo    *string

	Items         []OrderItem
	TotalPrice    float64
	PaymentMethod PaymentMethod
	NeedsChange   bool
	Comment       *string
	PickupGroupID *string

	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemsTotal is the sum of price*quantity over the items. TotalPrice is stored
// independently and may differ when set manually.
func (o Order) ItemsTotal() float64 {
	total := 0.0
	for _, item := range o.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (o Order) IsActive() bool {
	return o.Status != OrderStatusDelivered
}

func (o Order) BelongsTo(courierID string) bool {
	return o.CourierID != nil && *o.CourierID == courierID
}

// OrderPatch carries a partial update; nil fields are left untouched.
type OrderPatch struct {
	OrderNumber       *string
	RestaurantName    *string
	RestaurantAddress *string
	RestaurantLat     *float64
	RestaurantLng     *float64
	RestaurantCompany *string
	RestaurantComment *string
	CustomerName      *string
	CustomerPhone     *string
	CustomerAddress   *string
	CustomerLat       *float64
	CustomerLng       *float64
	HouseNumber       *string
	Apartment         *string
	Floor             *string
	BuildingInfo      *string
	Items             *[]OrderItem
	TotalPrice        *float64
	PaymentMethod     *PaymentMethod
	NeedsChange       *bool
	Comment           *string
	PickupGroupID     *string
	Status            *OrderStatus
}

func (p OrderPatch) IsEmpty() bool {
	return p == OrderPatch{}
}

type OrderHistoryFilter struct {
	Status       *OrderStatus
	CustomerName string
	DateFrom     *time.Time
	DateTo       *time.Time
}

type StatsPeriod string

const (
	PeriodDay   StatsPeriod = "day"
	PeriodWeek  StatsPeriod = "week"
	PeriodMonth StatsPeriod = "month"
)

func (p StatsPeriod) IsValid() bool {
	return p == PeriodDay || p == PeriodWeek || p == PeriodMonth
}

// PeriodStart returns the beginning of the period containing now, in now's location.
// Weeks start on Sunday.
func (p StatsPeriod) PeriodStart(now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	switch p {
	case PeriodWeek:
		return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
	case PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

type OrderStats struct {
	TotalOrders     int
	DeliveredOrders int
	TotalEarnings   float64
}
