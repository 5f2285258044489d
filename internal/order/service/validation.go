package service

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"courierhub/internal/domain"
	"courierhub/internal/dto"
	"courierhub/internal/errors"
)

// Limits mirror the orders and order_items column definitions.
const (
	maxIdentifierLength = 64
	maxNameLength       = 255
	maxAddressLength    = 500
	maxPhoneLength      = 30
	maxUnitLength       = 30
	maxTextLength       = 16000

	maxAmount   = 99999999.99
	maxQuantity = math.MaxInt32
)

// fieldErrors collects every invalid field of one request.
type fieldErrors []errors.ValidationDetail

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, errors.ValidationDetail{Field: field, Message: message})
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return errors.NewValidationError(message, f...)
}

func (f *fieldErrors) required(field, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		f.add(field, field+" is required")
	}
	return trimmed
}

// maxLength counts characters, which is what VARCHAR widths measure.
func (f *fieldErrors) maxLength(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		f.add(field, fmt.Sprintf("%s must be at most %d characters", field, limit))
	}
}

func (f *fieldErrors) text(field, value string, limit int) string {
	trimmed := f.required(field, value)
	f.maxLength(field, trimmed, limit)
	return trimmed
}

func (f *fieldErrors) optional(field string, value *string, limit int) *string {
	s := optionalString(value)
	if s != nil {
		f.maxLength(field, *s, limit)
	}
	return s
}

func (f *fieldErrors) latitude(field string, v *float64) float64 {
	if v == nil {
		f.add(field, field+" is required")
		return 0
	}
	if !domain.ValidLatitude(*v) {
		f.add(field, field+" must be between -90 and 90")
	}
	return *v
}

func (f *fieldErrors) longitude(field string, v *float64) float64 {
	if v == nil {
		f.add(field, field+" is required")
		return 0
	}
	if !domain.ValidLongitude(*v) {
		f.add(field, field+" must be between -180 and 180")
	}
	return *v
}

// amount accepts what DECIMAL(10,2) stores exactly.
func (f *fieldErrors) amount(field string, v float64) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0) || v < 0:
		f.add(field, field+" must be a non-negative number")
	case v > maxAmount:
		f.add(field, fmt.Sprintf("%s must not exceed %.2f", field, maxAmount))
	case !wholeCents(v):
		f.add(field, field+" must have at most 2 decimal places")
	}
}

func wholeCents(v float64) bool {
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-4
}

func (f *fieldErrors) paymentMethod(value string) domain.PaymentMethod {
	if value == "" {
		return domain.PaymentCash
	}
	pm := domain.PaymentMethod(value)
	if !pm.IsValid() {
		f.add("paymentMethod", "paymentMethod must be one of cash, card")
	}
	return pm
}

func (f *fieldErrors) status(value string) domain.OrderStatus {
	status := domain.OrderStatus(value)
	if !status.IsValid() {
		f.add("status", "status must be one of new, accepted, in_transit, delivered")
	}
	return status
}

func (f *fieldErrors) items(reqs []dto.OrderItemRequest) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(reqs))
	for i, req := range reqs {
		prefix := fmt.Sprintf("items[%d]", i)
		item := domain.OrderItem{
			Name:      f.text(prefix+".name", req.Name, maxNameLength),
			Quantity:  1,
			Modifiers: f.optional(prefix+".modifiers", req.Modifiers, maxTextLength),
		}
		if req.Price == nil {
			f.add(prefix+".price", prefix+".price is required")
		} else {
			f.amount(prefix+".price", *req.Price)
			item.Price = *req.Price
		}
		if req.Quantity != nil {
			if *req.Quantity < 1 {
				f.add(prefix+".quantity", prefix+".quantity must be at least 1")
			} else if *req.Quantity > maxQuantity {
				f.add(prefix+".quantity", fmt.Sprintf("%s.quantity must not exceed %d", prefix, maxQuantity))
			}
			item.Quantity = *req.Quantity
		}
		items = append(items, item)
	}
	return items
}

// optionalString trims s and maps blank values to nil.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func buildOrder(req dto.CreateOrderRequest) (domain.Order, error) {
	var f fieldErrors

	order := domain.Order{
		OrderNumber:       f.text("orderNumber", req.OrderNumber, maxIdentifierLength),
		RestaurantName:    f.text("restaurantName", req.RestaurantName, maxNameLength),
		RestaurantAddress: f.text("restaurantAddress", req.RestaurantAddress, maxAddressLength),
		RestaurantLat:     f.latitude("restaurantLat", req.RestaurantLat),
		RestaurantLng:     f.longitude("restaurantLng", req.RestaurantLng),
		RestaurantCompany: f.optional("restaurantCompany", req.RestaurantCompany, maxNameLength),
		RestaurantComment: f.optional("restaurantComment", req.RestaurantComment, maxTextLength),
		CustomerName:      f.text("customerName", req.CustomerName, maxNameLength),
		CustomerID:        f.optional("customerId", req.CustomerID, maxIdentifierLength),
		CustomerPhone:     f.optional("customerPhone", req.CustomerPhone, maxPhoneLength),
		CustomerAddress:   f.text("customerAddress", req.CustomerAddress, maxAddressLength),
		CustomerLat:       f.latitude("customerLat", req.CustomerLat),
		CustomerLng:       f.longitude("customerLng", req.CustomerLng),
		HouseNumber:       f.optional("houseNumber", req.HouseNumber, maxUnitLength),
		Apartment:         f.optional("apartment", req.Apartment, maxUnitLength),
		Floor:             f.optional("floor", req.Floor, maxUnitLength),
		BuildingInfo:      f.optional("buildingInfo", req.BuildingInfo, maxNameLength),
		Items:             f.items(req.Items),
		PaymentMethod:     f.paymentMethod(req.PaymentMethod),
		NeedsChange:       req.NeedsChange,
		Comment:           f.optional("comment", req.Comment, maxTextLength),
		PickupGroupID:     f.optional("pickupGroupId", req.PickupGroupID, maxIdentifierLength),
		Status:            domain.OrderStatusNew,
	}

	if req.TotalPrice != nil {
		f.amount("totalPrice", *req.TotalPrice)
		order.TotalPrice = *req.TotalPrice
	} else {
		order.TotalPrice = math.Round(order.ItemsTotal()*100) / 100
		if order.TotalPrice > maxAmount {
			f.add("totalPrice", fmt.Sprintf("totalPrice must not exceed %.2f", maxAmount))
		}
	}

	if order.PaymentMethod == domain.PaymentCard {
		order.NeedsChange = false
	}

	return order, f.err("invalid order")
}

// buildPatch validates an update request. Optional text fields are trimmed and
// kept, so an empty value clears them.
func buildPatch(req dto.UpdateOrderRequest) (domain.OrderPatch, error) {
	var f fieldErrors
	var p domain.OrderPatch

	requiredPtr := func(field string, v *string, limit int) *string {
		if v == nil {
			return nil
		}
		s := f.text(field, *v, limit)
		return &s
	}
	trimmedPtr := func(field string, v *string, limit int) *string {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		f.maxLength(field, s, limit)
		return &s
	}

	p.OrderNumber = requiredPtr("orderNumber", req.OrderNumber, maxIdentifierLength)
	p.RestaurantName = requiredPtr("restaurantName", req.RestaurantName, maxNameLength)
	p.RestaurantAddress = requiredPtr("restaurantAddress", req.RestaurantAddress, maxAddressLength)
	p.CustomerName = requiredPtr("customerName", req.CustomerName, maxNameLength)
	p.CustomerAddress = requiredPtr("customerAddress", req.CustomerAddress, maxAddressLength)
	p.RestaurantCompany = trimmedPtr("restaurantCompany", req.RestaurantCompany, maxNameLength)
	p.RestaurantComment = trimmedPtr("restaurantComment", req.RestaurantComment, maxTextLength)
	p.CustomerPhone = trimmedPtr("customerPhone", req.CustomerPhone, maxPhoneLength)
	p.HouseNumber = trimmedPtr("houseNumber", req.HouseNumber, maxUnitLength)
	p.Apartment = trimmedPtr("apartment", req.Apartment, maxUnitLength)
	p.Floor = trimmedPtr("floor", req.Floor, maxUnitLength)
	p.BuildingInfo = trimmedPtr("buildingInfo", req.BuildingInfo, maxNameLength)
	p.Comment = trimmedPtr("comment", req.Comment, maxTextLength)
	p.PickupGroupID = trimmedPtr("pickupGroupId", req.PickupGroupID, maxIdentifierLength)

	if req.RestaurantLat != nil {
		v := f.latitude("restaurantLat", req.RestaurantLat)
		p.RestaurantLat = &v
	}
	if req.RestaurantLng != nil {
		v := f.longitude("restaurantLng", req.RestaurantLng)
		p.RestaurantLng = &v
	}
	if req.CustomerLat != nil {
		v := f.latitude("customerLat", req.CustomerLat)
		p.CustomerLat = &v
	}
	if req.CustomerLng != nil {
		v := f.longitude("customerLng", req.CustomerLng)
		p.CustomerLng = &v
	}
	if req.TotalPrice != nil {
		f.amount("totalPrice", *req.TotalPrice)
		v := *req.TotalPrice
		p.TotalPrice = &v
	}
	if req.PaymentMethod != nil {
		if *req.PaymentMethod == "" {
			f.add("paymentMethod", "paymentMethod must be one of cash, card")
		} else {
			pm := f.paymentMethod(*req.PaymentMethod)
			p.PaymentMethod = &pm
		}
	}
	if req.NeedsChange != nil {
		v := *req.NeedsChange
		p.NeedsChange = &v
	}
	if req.Items != nil {
		items := f.items(*req.Items)
		p.Items = &items
	}
	if req.Status != nil {
		status := f.status(*req.Status)
		p.Status = &status
	}

	if err := f.err("invalid order update"); err != nil {
		return domain.OrderPatch{}, err
	}
	if p.IsEmpty() {
		return domain.OrderPatch{}, errors.NewValidationError("invalid order update", errors.ValidationDetail{
			Field:   "body",
			Message: "at least one field must be provided",
		})
	}

	return p, nil
}
