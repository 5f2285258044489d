package dto

import (
	"time"

	"courierhub/internal/domain"
)

type CourierResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	IsOnline   bool      `json:"isOnline"`
	CurrentLat *float64  `json:"currentLat"`
	CurrentLng *float64  `json:"currentLng"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type UpdateCourierRequest struct {
	Name     *string `json:"name"`
	IsOnline *bool   `json:"isOnline"`
}

type UpdateCourierStatusRequest struct {
	IsOnline *bool `json:"isOnline"`
}

type UpdateCourierLocationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func NewCourierResponse(c domain.Courier) CourierResponse {
	return CourierResponse{
		ID:         c.ID,
		UserID:     c.UserID,
		Name:       c.Name,
		IsOnline:   c.IsOnline,
		CurrentLat: c.CurrentLat,
		CurrentLng: c.CurrentLng,
		UpdatedAt:  c.UpdatedAt,
	}
}
