package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
)

const maxCourierNameLength = 255

type CourierRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Courier, error)
	FindByID(ctx context.Context, id string) (*domain.Courier, error)
	CreateIfAbsent(ctx context.Context, courier domain.Courier) error
	UpdateOnline(ctx context.Context, id string, isOnline bool, updatedAt time.Time) error
	UpdateLocation(ctx context.Context, id string, lat, lng float64, updatedAt time.Time) error
	UpdateName(ctx context.Context, id string, name string, updatedAt time.Time) error
}

type CourierService struct {
	repo   CourierRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewCourierService(repo CourierRepository, logger *zap.Logger) *CourierService {
	return &CourierService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GetOrCreate returns the courier owned by userID, creating it on first use.
func (s *CourierService) GetOrCreate(ctx context.Context, userID string, name string) (*domain.Courier, error) {
	courier, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return courier, nil
	}
	if _, ok := errors.IsNotFoundError(err); !ok {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultCourierName
	}
	if runes := []rune(name); len(runes) > maxCourierNameLength {
		name = string(runes[:maxCourierNameLength])
	}

	err = s.repo.CreateIfAbsent(ctx, domain.Courier{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("courier created", zap.String("userId", userID))

	// Re-read so a concurrent creator's row wins consistently.
	return s.repo.FindByUserID(ctx, userID)
}

func (s *CourierService) SetOnline(ctx context.Context, courierID string, isOnline bool) (*domain.Courier, error) {
	if err := s.repo.UpdateOnline(ctx, courierID, isOnline, s.now().UTC()); err != nil {
		return nil, err
	}

	s.logger.Info("courier availability changed", zap.String("courierId", courierID), zap.Bool("isOnline", isOnline))
	return s.repo.FindByID(ctx, courierID)
}

func (s *CourierService) UpdateLocation(ctx context.Context, courierID string, lat, lng *float64) (*domain.Courier, error) {
	var details []errors.ValidationDetail
	if lat == nil {
		details = append(details, errors.ValidationDetail{Field: "lat", Message: "lat is required"})
	} else if !domain.ValidLatitude(*lat) {
		details = append(details, errors.ValidationDetail{Field: "lat", Message: "lat must be between -90 and 90"})
	}
	if lng == nil {
		details = append(details, errors.ValidationDetail{Field: "lng", Message: "lng is required"})
	} else if !domain.ValidLongitude(*lng) {
		details = append(details, errors.ValidationDetail{Field: "lng", Message: "lng must be between -180 and 180"})
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError("invalid location", details...)
	}

	if err := s.repo.UpdateLocation(ctx, courierID, *lat, *lng, s.now().UTC()); err != nil {
		s.logger.Warn("location update failed", zap.String("courierId", courierID), zap.Error(err))
		return nil, err
	}

	return s.repo.FindByID(ctx, courierID)
}

func (s *CourierService) UpdateProfile(ctx context.Context, courierID string, name *string, isOnline *bool) (*domain.Courier, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" || utf8.RuneCountInString(trimmed) > maxCourierNameLength {
			return nil, errors.NewValidationError("invalid name", errors.ValidationDetail{
				Field:   "name",
				Message: "name must be between 1 and 255 characters",
			})
		}
		if err := s.repo.UpdateName(ctx, courierID, trimmed, s.now().UTC()); err != nil {
			return nil, err
		}
	}

	if isOnline != nil {
		if err := s.repo.UpdateOnline(ctx, courierID, *isOnline, s.now().UTC()); err != nil {
			return nil, err
		}
	}

	return s.repo.FindByID(ctx, courierID)
}
