package marker

import (
	"context"

	"courierhub/internal/domain"
)

type courierMarkersUseCase struct {
	couriers CourierResolver
	service  Service
}

func NewUseCase(couriers CourierResolver, service Service) UseCase {
	return &courierMarkersUseCase{couriers: couriers, service: service}
}

func (uc *courierMarkersUseCase) ListMarkers(ctx context.Context, p domain.Principal, markerType string) ([]MarkerResponse, error) {
	courier, err := uc.couriers.GetOrCreate(ctx, p.UserID, p.Name)
	if err != nil {
		return nil, err
	}

	markers, err := uc.service.List(ctx, courier.ID, markerType)
	if err != nil {
		return nil, err
	}

	resp := make([]MarkerResponse, 0, len(markers))
	for _, m := range markers {
		resp = append(resp, newMarkerResponse(m))
	}
	return resp, nil
}

func (uc *courierMarkersUseCase) CreateMarker(ctx context.Context, p domain.Principal, req CreateMarkerRequest) (*MarkerResponse, error) {
	courier, err := uc.couriers.GetOrCreate(ctx, p.UserID, p.Name)
	if err != nil {
		return nil, err
	}

	m, err := uc.service.Create(ctx, courier.ID, req)
	if err != nil {
		return nil, err
	}

	resp := newMarkerResponse(*m)
	return &resp, nil
}

func (uc *courierMarkersUseCase) MoveMarker(ctx context.Context, p domain.Principal, id string, req MoveMarkerRequest) (*MarkerResponse, error) {
	courier, err := uc.couriers.GetOrCreate(ctx, p.UserID, p.Name)
	if err != nil {
		return nil, err
	}

	m, err := uc.service.MovePosition(ctx, courier.ID, id, req.Lat, req.Lng)
	if err != nil {
		return nil, err
	}

	resp := newMarkerResponse(*m)
	return &resp, nil
}

func (uc *courierMarkersUseCase) DeleteMarker(ctx context.Context, p domain.Principal, id string) error {
	courier, err := uc.couriers.GetOrCreate(ctx, p.UserID, p.Name)
	if err != nil {
		return err
	}
	return uc.service.Delete(ctx, courier.ID, id)
}
