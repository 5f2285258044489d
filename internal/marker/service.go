package marker

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/domain"
	apperrors "courierhub/internal/errors"
)

const (
	maxNameLength    = 255
	maxAddressLength = 500
)

type markerService struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &markerService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

func (s *markerService) Create(ctx context.Context, courierID string, in CreateMarkerRequest) (*domain.Marker, error) {
	var details []apperrors.ValidationDetail

	markerType := domain.MarkerType(strings.TrimSpace(in.Type))
	if !markerType.IsValid() {
		details = append(details, apperrors.ValidationDetail{Field: "type", Message: "type must be one of: restaurant, customer"})
	}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	case utf8.RuneCountInString(name) > maxNameLength:
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name must be at most 255 characters"})
	}

	var address *string
	if in.Address != nil {
		if trimmed := strings.TrimSpace(*in.Address); trimmed != "" {
			if utf8.RuneCountInString(trimmed) > maxAddressLength {
				details = append(details, apperrors.ValidationDetail{Field: "address", Message: "address must be at most 500 characters"})
			}
			address = &trimmed
		}
	}

	details = append(details, validatePosition(in.Lat, in.Lng)...)

	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid marker", details...)
	}

	m := domain.Marker{
		ID:        s.newID(),
		CourierID: courierID,
		Type:      markerType,
		Name:      name,
		Address:   address,
		Lat:       *in.Lat,
		Lng:       *in.Lng,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("marker created", zap.String("markerId", m.ID), zap.String("courierId", courierID), zap.String("type", string(m.Type)))
	return &m, nil
}

// List returns the courier's markers, optionally restricted to one type.
func (s *markerService) List(ctx context.Context, courierID string, markerType string) ([]domain.Marker, error) {
	markerType = strings.TrimSpace(markerType)
	if markerType == "" {
		return s.repo.ListByCourier(ctx, courierID, nil)
	}

	t := domain.MarkerType(markerType)
	if !t.IsValid() {
		return nil, apperrors.NewValidationError("invalid marker type",
			apperrors.ValidationDetail{Field: "type", Message: "type must be one of: restaurant, customer"})
	}
	return s.repo.ListByCourier(ctx, courierID, &t)
}

func (s *markerService) MovePosition(ctx context.Context, courierID, id string, lat, lng *float64) (*domain.Marker, error) {
	if details := validatePosition(lat, lng); len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid position", details...)
	}

	if err := s.repo.UpdatePosition(ctx, courierID, id, *lat, *lng); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, courierID, id)
}

func (s *markerService) Delete(ctx context.Context, courierID, id string) error {
	if err := s.repo.Delete(ctx, courierID, id); err != nil {
		return err
	}

	s.logger.Info("marker deleted", zap.String("markerId", id), zap.String("courierId", courierID))
	return nil
}

func validatePosition(lat, lng *float64) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail
	switch {
	case lat == nil:
		details = append(details, apperrors.ValidationDetail{Field: "lat", Message: "lat is required"})
	case !domain.ValidLatitude(*lat):
		details = append(details, apperrors.ValidationDetail{Field: "lat", Message: "lat must be between -90 and 90"})
	}
	switch {
	case lng == nil:
		details = append(details, apperrors.ValidationDetail{Field: "lng", Message: "lng is required"})
	case !domain.ValidLongitude(*lng):
		details = append(details, apperrors.ValidationDetail{Field: "lng", Message: "lng must be between -180 and 180"})
	}
	return details
}
