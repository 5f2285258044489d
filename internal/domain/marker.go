package domain

import "time"

type MarkerType string

const (
	MarkerRestaurant MarkerType = "restaurant"
	MarkerCustomer   MarkerType = "customer"
)

func (t MarkerType) IsValid() bool {
	return t == MarkerRestaurant || t == MarkerCustomer
}

type Marker struct {
	ID        string
	CourierID string
	Type      MarkerType
	Name      string
	Address   *string
	Lat       float64
	Lng       float64
	CreatedAt time.Time
}
