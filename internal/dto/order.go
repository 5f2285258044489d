package dto

import (
	"time"

	"courierhub/internal/domain"
)

type OrderItemRequest struct {
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Quantity  *int     `json:"quantity"`
	Modifiers *string  `json:"modifiers"`
}

type CreateOrderRequest struct {
	OrderNumber string `json:"orderNumber"`

	RestaurantName    string   `json:"restaurantName"`
	RestaurantAddress string   `json:"restaurantAddress"`
	RestaurantLat     *float64 `json:"restaurantLat"`
	RestaurantLng     *float64 `json:"restaurantLng"`
	RestaurantCompany *string  `json:"restaurantCompany"`
	RestaurantComment *string  `json:"restaurantComment"`

	CustomerName    string   `json:"customerName"`
	CustomerID      *string  `json:"customerId"`
	CustomerPhone   *string  `json:"customerPhone"`
	CustomerAddress string   `json:"customerAddress"`
	CustomerLat     *float64 `json:"customerLat"`
	CustomerLng     *float64 `json:"customerLng"`
	HouseNumber     *string  `json:"houseNumber"`
	Apartment       *string  `json:"apartment"`
	Floor           *string  `json:"floor"`
	BuildingInfo    *string  `json:"buildingInfo"`

	Items         []OrderItemRequest `json:"items"`
	TotalPrice    *float64           `json:"totalPrice"`
	PaymentMethod string             `json:"paymentMethod"`
	NeedsChange   bool               `json:"needsChange"`
	Comment       *string            `json:"comment"`
	PickupGroupID *string            `json:"pickupGroupId"`
}

// UpdateOrderRequest is a partial update. Absent fields are left untouched.
type UpdateOrderRequest struct {
	OrderNumber       *string             `json:"orderNumber"`
	RestaurantName    *string             `json:"restaurantName"`
	RestaurantAddress *string             `json:"restaurantAddress"`
	RestaurantLat     *float64            `json:"restaurantLat"`
	RestaurantLng     *float64            `json:"restaurantLng"`
	RestaurantCompany *string             `json:"restaurantCompany"`
	RestaurantComment *string             `json:"restaurantComment"`
	CustomerName      *string             `json:"customerName"`
	CustomerPhone     *string             `json:"customerPhone"`
	CustomerAddress   *string             `json:"customerAddress"`
	CustomerLat       *float64            `json:"customerLat"`
	CustomerLng       *float64            `json:"customerLng"`
	HouseNumber       *string             `json:"houseNumber"`
	Apartment         *string             `json:"apartment"`
	Floor             *string             `json:"floor"`
	BuildingInfo      *string             `json:"buildingInfo"`
	Items             *[]OrderItemRequest `json:"items"`
	TotalPrice        *float64            `json:"totalPrice"`
	PaymentMethod     *string             `json:"paymentMethod"`
	NeedsChange       *bool               `json:"needsChange"`
	Comment           *string             `json:"comment"`
	PickupGroupID     *string             `json:"pickupGroupId"`
	Status            *string             `json:"status"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type UpdateOrderLocationRequest struct {
	Type string   `json:"type"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

// OrderHistoryQuery holds the raw query string values of GET /orders/history.
type OrderHistoryQuery struct {
	Status       string
	CustomerName string
	DateFrom     string
	DateTo       string
}

type OrderItemResponse struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Modifiers *string `json:"modifiers,omitempty"`
}

type OrderResponse struct {
	ID                string              `json:"id"`
	OrderNumber       string              `json:"orderNumber"`
	CourierID         *string             `json:"courierId"`
	RestaurantName    string              `json:"restaurantName"`
	RestaurantAddress string              `json:"restaurantAddress"`
	RestaurantLat     float64             `json:"restaurantLat"`
	RestaurantLng     float64             `json:"restaurantLng"`
	RestaurantCompany *string             `json:"restaurantCompany"`
	RestaurantComment *string             `json:"restaurantComment"`
	CustomerName      string              `json:"customerName"`
	CustomerID        *string             `json:"customerId"`
	CustomerPhone     *string             `json:"customerPhone"`
	CustomerAddress   string              `json:"customerAddress"`
	CustomerLat       float64             `json:"customerLat"`
	CustomerLng       float64             `json:"customerLng"`
	HouseNumber       *string             `json:"houseNumber"`
	Apartment         *string             `json:"apartment"`
	Floor             *string             `json:"floor"`
	BuildingInfo      *string             `json:"buildingInfo"`
	Items             []OrderItemResponse `json:"items"`
	TotalPrice        float64             `json:"totalPrice"`
	PaymentMethod     string              `json:"paymentMethod"`
	NeedsChange       bool                `json:"needsChange"`
	Comment           *string             `json:"comment"`
	PickupGroupID     *string             `json:"pickupGroupId"`
	Status            string              `json:"status"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

type PeriodStats struct {
	TotalOrders     int     `json:"totalOrders"`
	DeliveredOrders int     `json:"deliveredOrders"`
	TotalEarnings   float64 `json:"totalEarnings"`
}

type OrderStatsResponse struct {
	Daily   PeriodStats `json:"daily"`
	Weekly  PeriodStats `json:"weekly"`
	Monthly PeriodStats `json:"monthly"`
}

func NewOrderResponse(o domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Modifiers: item.Modifiers,
		}
	}

	return OrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		CourierID:         o.CourierID,
		RestaurantName:    o.RestaurantName,
		RestaurantAddress: o.RestaurantAddress,
		RestaurantLat:     o.RestaurantLat,
		RestaurantLng:     o.RestaurantLng,
		RestaurantCompany: o.RestaurantCompany,
		RestaurantComment: o.RestaurantComment,
		CustomerName:      o.CustomerName,
		CustomerID:        o.CustomerID,
		CustomerPhone:     o.CustomerPhone,
		CustomerAddress:   o.CustomerAddress,
		CustomerLat:       o.CustomerLat,
		CustomerLng:       o.CustomerLng,
		HouseNumber:       o.HouseNumber,
		Apartment:         o.Apartment,
		Floor:             o.Floor,
		BuildingInfo:      o.BuildingInfo,
		Items:             items,
		TotalPrice:        o.TotalPrice,
		PaymentMethod:     string(o.PaymentMethod),
		NeedsChange:       o.NeedsChange,
		Comment:           o.Comment,
		PickupGroupID:     o.PickupGroupID,
		Status:            o.Status.String(),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func NewOrderListResponse(orders []domain.Order) []OrderResponse {
	resp := make([]OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = NewOrderResponse(o)
	}
	return resp
}

func NewPeriodStats(s domain.OrderStats) PeriodStats {
	return PeriodStats{
		TotalOrders:     s.TotalOrders,
		DeliveredOrders: s.DeliveredOrders,
		TotalEarnings:   s.TotalEarnings,
	}
}
