package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderItem_Creation(t *testing.T) {
	item := OrderItem{
		Name:      "Margherita",
		Price:     29.99,
		Quantity:  3,
		Modifiers: strPtr("no basil"),
	}

	assert.Equal(t, "Margherita", item.Name)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 29.99, item.Price)
	assert.Equal(t, "no basil", *item.Modifiers)
}

func TestOrder_ItemsTotal(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{Name: "Soup", Price: 50.00, Quantity: 2},
			{Name: "Bread", Price: 75.50, Quantity: 1},
		},
		TotalPrice: 200,
	}

	assert.Equal(t, 175.50, order.ItemsTotal())
	// manual override is kept as-is
	assert.Equal(t, 200.0, order.TotalPrice)
}

func TestOrder_ItemsTotal_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Order{}.ItemsTotal())
}
