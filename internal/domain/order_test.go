package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

func TestOrder_Creation(t *testing.T) {
	createdAt := time.Now()
	courierID := "c-1"

	order := Order{
		ID:                "o-1",
		OrderNumber:       "1001",
		CourierID:         &courierID,
		RestaurantName:    "Pizza Place",
		RestaurantAddress: "1 Main St",
		CustomerName:      "Ivan",
		CustomerAddress:   "2 Side St",
		TotalPrice:        150,
		PaymentMethod:     PaymentCash,
		Status:            OrderStatusNew,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}

	assert.Equal(t, "o-1", order.ID)
	assert.Equal(t, OrderStatusNew, order.Status)
	assert.True(t, order.IsActive())
	assert.True(t, order.BelongsTo("c-1"))
	assert.False(t, order.BelongsTo("c-2"))
	assert.Nil(t, order.PickupGroupID)
}

func TestOrder_BelongsTo_Unassigned(t *testing.T) {
	order := Order{ID: "o-1"}
	assert.False(t, order.BelongsTo(""))
	assert.False(t, order.BelongsTo("c-1"))
}

func TestOrder_DeliveredIsNotActive(t *testing.T) {
	order := Order{Status: OrderStatusDelivered}
	assert.False(t, order.IsActive())
	assert.True(t, order.Status.IsTerminal())
}

func TestOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		status OrderStatus
		valid  bool
	}{
		{OrderStatusNew, true},
		{OrderStatusAccepted, true},
		{OrderStatusInTransit, true},
		{OrderStatusDelivered, true},
		{"cancelled", false},
		{"", false},
		{"NEW", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.IsValid())
		})
	}
}

func TestOrderStatus_OnlyDeliveredIsTerminal(t *testing.T) {
	assert.False(t, OrderStatusNew.IsTerminal())
	assert.False(t, OrderStatusAccepted.IsTerminal())
	assert.False(t, OrderStatusInTransit.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
}

func TestPaymentMethod_IsValid(t *testing.T) {
	assert.True(t, PaymentCash.IsValid())
	assert.True(t, PaymentCard.IsValid())
	assert.False(t, PaymentMethod("crypto").IsValid())
}

func TestOrderPatch_IsEmpty(t *testing.T) {
	assert.True(t, OrderPatch{}.IsEmpty())

	comment := "ring twice"
	assert.False(t, OrderPatch{Comment: &comment}.IsEmpty())
}

func TestStatsPeriod_PeriodStart(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// Wednesday
	now := time.Date(2026, time.October, 14, 15, 30, 0, 0, loc)

	tests := []struct {
		name   string
		period StatsPeriod
		want   time.Time
	}{
		{"day starts at local midnight", PeriodDay, time.Date(2026, time.October, 14, 0, 0, 0, 0, loc)},
		{"week starts on sunday", PeriodWeek, time.Date(2026, time.October, 11, 0, 0, 0, 0, loc)},
		{"month starts on the first", PeriodMonth, time.Date(2026, time.October, 1, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.period.PeriodStart(now)), "got %s", tt.period.PeriodStart(now))
		})
	}
}

func TestStatsPeriod_WeekStartOnSunday(t *testing.T) {
	sunday := time.Date(2026, time.October, 11, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.October, 11, 0, 0, 0, 0, time.UTC), PeriodWeek.PeriodStart(sunday))
}

func TestStatsPeriod_WeekCrossesMonthBoundary(t *testing.T) {
	// Thursday 1 October 2026; previous Sunday is 27 September
	now := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.September, 27, 0, 0, 0, 0, time.UTC), PeriodWeek.PeriodStart(now))
}

func TestStatsPeriod_IsValid(t *testing.T) {
	assert.True(t, PeriodDay.IsValid())
	assert.True(t, PeriodWeek.IsValid())
	assert.True(t, PeriodMonth.IsValid())
	assert.False(t, StatsPeriod("year").IsValid())
}
