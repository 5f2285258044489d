package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"courierhub/internal/domain"
	"courierhub/internal/infrastructure/mysql"
)

type MySQLOrderItemRepository struct {
	db *sql.DB
}

func NewMySQLOrderItemRepository(db *sql.DB) *MySQLOrderItemRepository {
	return &MySQLOrderItemRepository{db: db}
}

// InsertAll stores items in slice order; position is the slice index.
func (r *MySQLOrderItemRepository) InsertAll(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	placeholders := make([]string, len(items))
	args := make([]any, 0, len(items)*6)
	for i, item := range items {
		placeholders[i] = "(?, ?, ?, ?, ?, ?)"
		args = append(args, orderID, i, item.Name, item.Price, item.Quantity, item.Modifiers)
	}

	query := `INSERT INTO order_items (orderId, position, name, price, quantity, modifiers) VALUES ` +
		strings.Join(placeholders, ", ")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting order items: %w", mysql.Classify(err))
	}

	return nil
}

// ReplaceAll swaps the item list of an order for items.
func (r *MySQLOrderItemRepository) ReplaceAll(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE orderId = ?`, orderID); err != nil {
		return fmt.Errorf("deleting order items: %w", mysql.Classify(err))
	}
	return r.InsertAll(ctx, tx, orderID, items)
}

// FindByOrderIDs returns the items of each order keyed by order id, in position order.
func (r *MySQLOrderItemRepository) FindByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	result := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(orderIDs))
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT orderId, name, price, quantity, modifiers
		FROM order_items
		WHERE orderId IN (%s)
		ORDER BY orderId, position
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", mysql.Classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID   string
			item      domain.OrderItem
			modifiers sql.NullString
		)
		if err := rows.Scan(&orderID, &item.Name, &item.Price, &item.Quantity, &modifiers); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		if modifiers.Valid {
			item.Modifiers = &modifiers.String
		}
		result[orderID] = append(result[orderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", mysql.Classify(err))
	}

	return result, nil
}
