package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/mysql"
)

// errNoReferencedRow is raised when the order a message points at does not exist.
const errNoReferencedRow = 1452

type MySQLMessageRepository struct {
	db *sql.DB
}

func NewMySQLMessageRepository(db *sql.DB) *MySQLMessageRepository {
	return &MySQLMessageRepository{db: db}
}

func (r *MySQLMessageRepository) Insert(ctx context.Context, msg domain.Message) error {
	query := `
		INSERT INTO messages (id, orderId, senderId, senderType, content, isRead, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.OrderID, msg.SenderID, string(msg.SenderType), msg.Content, msg.IsRead, msg.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysqldriver.MySQLError
		if stderrors.As(err, &mysqlErr) && mysqlErr.Number == errNoReferencedRow {
			return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", msg.OrderID))
		}
		return fmt.Errorf("inserting message: %w", mysql.Classify(err))
	}

	return nil
}

// ListByOrder returns the order's messages oldest first.
func (r *MySQLMessageRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Message, error) {
	query := `
		SELECT id, orderId, senderId, senderType, content, isRead, createdAt
		FROM messages
		WHERE orderId = ?
		ORDER BY createdAt ASC, seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", mysql.Classify(err))
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var (
			m          domain.Message
			senderType string
		)
		if err := rows.Scan(&m.ID, &m.OrderID, &m.SenderID, &senderType, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.SenderType = domain.SenderType(senderType)
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", mysql.Classify(err))
	}

	return messages, nil
}

// MarkRead marks the given messages of the order as read. Messages not named
// in ids are left alone, so a message stored after the caller listed the
// conversation stays unread. It returns the number of messages changed.
func (r *MySQLMessageRepository) MarkRead(ctx context.Context, orderID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, orderID)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`UPDATE messages SET isRead = 1 WHERE orderId = ? AND isRead = 0 AND id IN (%s)`,
		strings.Join(placeholders, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", mysql.Classify(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return n, nil
}

// CountUnread counts the unread messages of the order sent by the other party.
func (r *MySQLMessageRepository) CountUnread(ctx context.Context, orderID string, forParty domain.SenderType) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE orderId = ? AND senderType <> ? AND isRead = 0`

	var count int
	if err := r.db.QueryRowContext(ctx, query, orderID, string(forParty)).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", mysql.Classify(err))
	}

	return count, nil
}
