package marker

import (
	"time"

	"courierhub/internal/domain"
)

type CreateMarkerRequest struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Address *string  `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

type MoveMarkerRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type MarkerResponse struct {
	ID        string    `json:"id"`
	CourierID string    `json:"courierId"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"createdAt"`
}

func newMarkerResponse(m domain.Marker) MarkerResponse {
	return MarkerResponse{
		ID:        m.ID,
		CourierID: m.CourierID,
		Type:      string(m.Type),
		Name:      m.Name,
		Address:   m.Address,
		Lat:       m.Lat,
		Lng:       m.Lng,
		CreatedAt: m.CreatedAt,
	}
}
