package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierhub/internal/domain"
)

func TestNewOrderResponse_MapsItemsAndStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mods := "no onions"
	order := domain.Order{
		ID:            "o-1",
		OrderNumber:   "42",
		Items:         []domain.OrderItem{{Name: "Pizza", Price: 100, Quantity: 1, Modifiers: &mods}, {Name: "Cola", Price: 25, Quantity: 2}},
		TotalPrice:    150,
		PaymentMethod: domain.PaymentCard,
		Status:        domain.OrderStatusInTransit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	resp := NewOrderResponse(order)

	assert.Equal(t, "in_transit", resp.Status)
	assert.Equal(t, "card", resp.PaymentMethod)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "no onions", *resp.Items[0].Modifiers)
	assert.Equal(t, 2, resp.Items[1].Quantity)
}

func TestOrderResponse_EmptyItemsEncodeAsArray(t *testing.T) {
	body, err := json.Marshal(NewOrderResponse(domain.Order{ID: "o-1"}))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"items":[]`)
}

func TestCreateOrderRequest_DecodesCamelCase(t *testing.T) {
	var req CreateOrderRequest
	err := json.Unmarshal([]byte(`{"orderNumber":"7","restaurantLat":50.45,"items":[{"name":"Soup","price":10}],"pickupGroupId":"G1"}`), &req)
	require.NoError(t, err)

	assert.Equal(t, "7", req.OrderNumber)
	require.NotNil(t, req.RestaurantLat)
	assert.Equal(t, 50.45, *req.RestaurantLat)
	require.Len(t, req.Items, 1)
	assert.Nil(t, req.Items[0].Quantity)
	assert.Equal(t, "G1", *req.PickupGroupID)
}
