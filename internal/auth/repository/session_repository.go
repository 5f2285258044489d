package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/mysql"
)

// MySQLSessionRepository stores session payloads as JSON blobs keyed by sid.
type MySQLSessionRepository struct {
	db *sql.DB
}

func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}

func (r *MySQLSessionRepository) FindByID(ctx context.Context, sid string) (*domain.Session, error) {
	query := `SELECT sid, sess, expire FROM sessions WHERE sid = ?`

	var (
		session domain.Session
		raw     []byte
	)
	err := r.db.QueryRowContext(ctx, query, sid).Scan(&session.ID, &raw, &session.Expire)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying session by sid: %w", mysql.Classify(err))
	}

	if err := json.Unmarshal(raw, &session.Data); err != nil {
		return nil, fmt.Errorf("decoding session payload: %w", err)
	}

	return &session, nil
}

func (r *MySQLSessionRepository) Save(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(session.Data)
	if err != nil {
		return fmt.Errorf("encoding session payload: %w", err)
	}

	query := `
		INSERT INTO sessions (sid, sess, expire) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE sess = VALUES(sess), expire = VALUES(expire)
	`

	if _, err := r.db.ExecContext(ctx, query, session.ID, raw, session.Expire); err != nil {
		return fmt.Errorf("saving session: %w", mysql.Classify(err))
	}

	return nil
}

// Delete removes the session. Deleting an unknown sid is not an error.
func (r *MySQLSessionRepository) Delete(ctx context.Context, sid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE sid = ?`, sid); err != nil {
		return fmt.Errorf("deleting session: %w", mysql.Classify(err))
	}
	return nil
}

func (r *MySQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expire <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", mysql.Classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected, nil
}
