package repository

import (
	"context"
	"database/sql"
	"fmt"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/mysql"
)

// MySQLUserSessionRepository owns the one-row-per-user table that names the
// only session allowed to act for that user.
type MySQLUserSessionRepository struct {
	db *sql.DB
}

func NewMySQLUserSessionRepository(db *sql.DB) *MySQLUserSessionRepository {
	return &MySQLUserSessionRepository{db: db}
}

func (r *MySQLUserSessionRepository) FindByUserID(ctx context.Context, userID string) (*domain.UserSession, error) {
	query := `
		SELECT userId, sessionId, deviceInfo, ipAddress, createdAt
		FROM user_sessions
		WHERE userId = ?
	`

	var us domain.UserSession
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&us.UserID, &us.SessionID, &us.DeviceInfo, &us.IPAddress, &us.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no active session for user %s", userID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user session: %w", mysql.Classify(err))
	}

	return &us, nil
}

// Upsert makes us the canonical session for its user. Concurrent writers
// resolve last-writer-wins.
func (r *MySQLUserSessionRepository) Upsert(ctx context.Context, us domain.UserSession) error {
	query := `
		INSERT INTO user_sessions (userId, sessionId, deviceInfo, ipAddress, createdAt)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			sessionId = VALUES(sessionId),
			deviceInfo = VALUES(deviceInfo),
			ipAddress = VALUES(ipAddress),
			createdAt = VALUES(createdAt)
	`

	_, err := r.db.ExecContext(ctx, query, us.UserID, us.SessionID, us.DeviceInfo, us.IPAddress, us.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting user session: %w", mysql.Classify(err))
	}

	return nil
}

// DeleteIfCurrent deletes the row only while it still points at sessionID.
func (r *MySQLUserSessionRepository) DeleteIfCurrent(ctx context.Context, userID, sessionID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_sessions WHERE userId = ? AND sessionId = ?`, userID, sessionID)
	if err != nil {
		return false, fmt.Errorf("deleting user session: %w", mysql.Classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
