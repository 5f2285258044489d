package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/mysql"
)

const courierColumns = `id, userId, name, isOnline, currentLat, currentLng, updatedAt`

type MySQLCourierRepository struct {
	db *sql.DB
}

func NewMySQLCourierRepository(db *sql.DB) *MySQLCourierRepository {
	return &MySQLCourierRepository{db: db}
}

func (r *MySQLCourierRepository) FindByUserID(ctx context.Context, userID string) (*domain.Courier, error) {
	query := `SELECT ` + courierColumns + ` FROM couriers WHERE userId = ?`

	courier, err := scanCourier(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("courier for user %s not found", userID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying courier by user id: %w", mysql.Classify(err))
	}

	return courier, nil
}

func (r *MySQLCourierRepository) FindByID(ctx context.Context, id string) (*domain.Courier, error) {
	query := `SELECT ` + courierColumns + ` FROM couriers WHERE id = ?`

	courier, err := scanCourier(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("courier with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying courier by id: %w", mysql.Classify(err))
	}

	return courier, nil
}

// CreateIfAbsent inserts the courier unless its user already has one.
func (r *MySQLCourierRepository) CreateIfAbsent(ctx context.Context, courier domain.Courier) error {
	query := `
		INSERT INTO couriers (id, userId, name, isOnline, currentLat, currentLng, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = id
	`

	_, err := r.db.ExecContext(ctx, query,
		courier.ID, courier.UserID, courier.Name, courier.IsOnline,
		courier.CurrentLat, courier.CurrentLng, courier.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting courier: %w", mysql.Classify(err))
	}

	return nil
}

func (r *MySQLCourierRepository) UpdateOnline(ctx context.Context, id string, isOnline bool, updatedAt time.Time) error {
	query := `UPDATE couriers SET isOnline = ?, updatedAt = ? WHERE id = ?`
	return r.exec(ctx, "updating courier online flag", id, query, isOnline, updatedAt, id)
}

func (r *MySQLCourierRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64, updatedAt time.Time) error {
	query := `UPDATE couriers SET currentLat = ?, currentLng = ?, updatedAt = ? WHERE id = ?`
	return r.exec(ctx, "updating courier location", id, query, lat, lng, updatedAt, id)
}

func (r *MySQLCourierRepository) UpdateName(ctx context.Context, id string, name string, updatedAt time.Time) error {
	query := `UPDATE couriers SET name = ?, updatedAt = ? WHERE id = ?`
	return r.exec(ctx, "updating courier name", id, query, name, updatedAt, id)
}

func (r *MySQLCourierRepository) exec(ctx context.Context, op string, id string, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mysql.Classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("courier with id %s not found", id))
	}

	return nil
}

func scanCourier(row *sql.Row) (*domain.Courier, error) {
	var (
		c        domain.Courier
		lat, lng sql.NullFloat64
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.IsOnline, &lat, &lng, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if lat.Valid {
		c.CurrentLat = &lat.Float64
	}
	if lng.Valid {
		c.CurrentLng = &lng.Float64
	}
	return &c, nil
}
