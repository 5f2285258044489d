package marker

import (
	"context"

	"courierhub/internal/domain"
)

type UseCase interface {
	ListMarkers(ctx context.Context, p domain.Principal, markerType string) ([]MarkerResponse, error)
	CreateMarker(ctx context.Context, p domain.Principal, req CreateMarkerRequest) (*MarkerResponse, error)
	MoveMarker(ctx context.Context, p domain.Principal, id string, req MoveMarkerRequest) (*MarkerResponse, error)
	DeleteMarker(ctx context.Context, p domain.Principal, id string) error
}

type Service interface {
	Create(ctx context.Context, courierID string, in CreateMarkerRequest) (*domain.Marker, error)
	List(ctx context.Context, courierID string, markerType string) ([]domain.Marker, error)
	MovePosition(ctx context.Context, courierID, id string, lat, lng *float64) (*domain.Marker, error)
	Delete(ctx context.Context, courierID, id string) error
}

type Repository interface {
	Insert(ctx context.Context, m domain.Marker) error
	FindByID(ctx context.Context, courierID, id string) (*domain.Marker, error)
	ListByCourier(ctx context.Context, courierID string, markerType *domain.MarkerType) ([]domain.Marker, error)
	UpdatePosition(ctx context.Context, courierID, id string, lat, lng float64) error
	Delete(ctx context.Context, courierID, id string) error
}

type CourierResolver interface {
	GetOrCreate(ctx context.Context, userID string, name string) (*domain.Courier, error)
}
