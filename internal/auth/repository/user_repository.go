package repository

import (
	"context"
	"database/sql"
	"fmt"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/mysql"
)

type MySQLUserRepository struct {
	db *sql.DB
}

func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func (r *MySQLUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, username, email, firstName, lastName, createdAt, updatedAt
		FROM users
		WHERE id = ?
	`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", mysql.Classify(err))
	}

	return &user, nil
}

// CreateIfAbsent inserts the user unless a row with the same id already exists.
func (r *MySQLUserRepository) CreateIfAbsent(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (id, username, email, firstName, lastName, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = id
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", mysql.Classify(err))
	}

	return nil
}
