package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/mysql"
)

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

func (r *MySQLRepository) Insert(ctx context.Context, m domain.Marker) error {
	query := `
		INSERT INTO markers (id, courierId, type, name, address, lat, lng, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.CourierID, string(m.Type), m.Name, nullString(m.Address), m.Lat, m.Lng, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting marker: %w", mysql.Classify(err))
	}

	return nil
}

// FindByID returns the marker only when it belongs to courierID.
func (r *MySQLRepository) FindByID(ctx context.Context, courierID, id string) (*domain.Marker, error) {
	query := `
		SELECT id, courierId, type, name, address, lat, lng, createdAt
		FROM markers
		WHERE id = ? AND courierId = ?
	`

	m, err := scanMarker(r.db.QueryRowContext(ctx, query, id, courierID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("marker with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying marker: %w", mysql.Classify(err))
	}

	return m, nil
}

// ListByCourier returns the courier's markers newest first. A nil markerType
// returns every type.
func (r *MySQLRepository) ListByCourier(ctx context.Context, courierID string, markerType *domain.MarkerType) ([]domain.Marker, error) {
	query := `
		SELECT id, courierId, type, name, address, lat, lng, createdAt
		FROM markers
		WHERE courierId = ?`
	args := []interface{}{courierID}
	if markerType != nil {
		query += ` AND type = ?`
		args = append(args, string(*markerType))
	}
	query += ` ORDER BY createdAt DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying markers: %w", mysql.Classify(err))
	}
	defer rows.Close()

	markers := make([]domain.Marker, 0)
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning marker row: %w", err)
		}
		markers = append(markers, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating marker rows: %w", mysql.Classify(err))
	}

	return markers, nil
}

func (r *MySQLRepository) UpdatePosition(ctx context.Context, courierID, id string, lat, lng float64) error {
	query := `UPDATE markers SET lat = ?, lng = ? WHERE id = ? AND courierId = ?`

	result, err := r.db.ExecContext(ctx, query, lat, lng, id, courierID)
	if err != nil {
		return fmt.Errorf("updating marker position: %w", mysql.Classify(err))
	}

	return expectOneRow(result, id)
}

// Delete removes the marker. A marker owned by another courier is reported as
// missing.
func (r *MySQLRepository) Delete(ctx context.Context, courierID, id string) error {
	query := `DELETE FROM markers WHERE id = ? AND courierId = ?`

	result, err := r.db.ExecContext(ctx, query, id, courierID)
	if err != nil {
		return fmt.Errorf("deleting marker: %w", mysql.Classify(err))
	}

	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("marker with id %s not found", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMarker(row rowScanner) (*domain.Marker, error) {
	var (
		m          domain.Marker
		markerType string
		address    sql.NullString
	)
	if err := row.Scan(&m.ID, &m.CourierID, &markerType, &m.Name, &address, &m.Lat, &m.Lng, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = domain.MarkerType(markerType)
	if address.Valid {
		m.Address = &address.String
	}
	return &m, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
