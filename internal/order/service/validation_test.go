package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierhub/internal/dto"
	"courierhub/internal/errors"
)

func detailFields(t *testing.T, err error) map[string]string {
	t.Helper()
	ve, ok := errors.IsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)

	fields := make(map[string]string, len(ve.Details))
	for _, d := range ve.Details {
		fields[d.Field] = d.Message
	}
	return fields
}

func TestBuildOrder_RejectsValuesWiderThanColumns(t *testing.T) {
	req := validCreateRequest(strings.Repeat("n", 5000), 150)
	req.OrderNumber = strings.Repeat("A", 5000)
	req.CustomerPhone = strPtr(strings.Repeat("7", 31))
	req.HouseNumber = strPtr(strings.Repeat("1", 31))
	req.PickupGroupID = strPtr(strings.Repeat("g", 65))
	req.Items = []dto.OrderItemRequest{{Name: strings.Repeat("x", 256), Price: floatPtr(150)}}

	_, err := buildOrder(req)

	fields := detailFields(t, err)
	assert.Equal(t, "orderNumber must be at most 64 characters", fields["orderNumber"])
	assert.Equal(t, "customerName must be at most 255 characters", fields["customerName"])
	assert.Contains(t, fields, "customerPhone")
	assert.Contains(t, fields, "houseNumber")
	assert.Contains(t, fields, "pickupGroupId")
	assert.Contains(t, fields, "items[0].name")
}

func TestBuildOrder_LengthCountsCharactersNotBytes(t *testing.T) {
	// 64 Cyrillic letters are 128 bytes but fit VARCHAR(64)
	req := validCreateRequest(strings.Repeat("Я", 255), 150)
	req.OrderNumber = strings.Repeat("Ж", 64)

	order, err := buildOrder(req)

	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("Ж", 64), order.OrderNumber)
}

func TestBuildOrder_Amounts(t *testing.T) {
	tests := []struct {
		name    string
		total   float64
		message string
	}{
		{"two decimals", 19.99, ""},
		{"largest storable", 99999999.99, ""},
		{"zero", 0, ""},
		{"above column range", 1e12, "totalPrice must not exceed 99999999.99"},
		{"just above column range", 100000000, "totalPrice must not exceed 99999999.99"},
		{"sub-cent precision", 1.005, "totalPrice must have at most 2 decimal places"},
		{"negative", -0.01, "totalPrice must be a non-negative number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := buildOrder(validCreateRequest("Ivan", tt.total))

			if tt.message == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.total, order.TotalPrice)
				return
			}
			assert.Equal(t, tt.message, detailFields(t, err)["totalPrice"])
		})
	}
}

func TestBuildOrder_ComputedTotalMustFitColumn(t *testing.T) {
	req := validCreateRequest("Ivan", 0)
	req.TotalPrice = nil
	qty := 1000
	req.Items = []dto.OrderItemRequest{{Name: "Caviar", Price: floatPtr(99999999.99), Quantity: &qty}}

	_, err := buildOrder(req)

	fields := detailFields(t, err)
	assert.Contains(t, fields, "totalPrice")
	assert.NotContains(t, fields, "items[0].price")
}

func TestBuildOrder_ItemPriceAndQuantityBounds(t *testing.T) {
	huge := 1 << 40
	req := validCreateRequest("Ivan", 150)
	req.Items = []dto.OrderItemRequest{
		{Name: "Tea", Price: floatPtr(0.125)},
		{Name: "Water", Price: floatPtr(1), Quantity: &huge},
	}

	_, err := buildOrder(req)

	fields := detailFields(t, err)
	assert.Equal(t, "items[0].price must have at most 2 decimal places", fields["items[0].price"])
	assert.Contains(t, fields, "items[1].quantity")
}

func TestBuildPatch_AppliesSameLimits(t *testing.T) {
	long := strings.Repeat("a", 501)
	price := 1e9

	_, err := buildPatch(dto.UpdateOrderRequest{
		CustomerAddress: &long,
		Floor:           &long,
		TotalPrice:      &price,
	})

	fields := detailFields(t, err)
	assert.Equal(t, "customerAddress must be at most 500 characters", fields["customerAddress"])
	assert.Equal(t, "floor must be at most 30 characters", fields["floor"])
	assert.Contains(t, fields, "totalPrice")
}

func TestBuildPatch_EmptyOptionalClearsField(t *testing.T) {
	empty := "  "

	p, err := buildPatch(dto.UpdateOrderRequest{Comment: &empty})

	require.NoError(t, err)
	require.NotNil(t, p.Comment)
	assert.Equal(t, "", *p.Comment)
}
