package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/infrastructure/mysql"
)

const orderColumns = `
	id, orderNumber, courierId,
	restaurantName, restaurantAddress, restaurantLat, restaurantLng, restaurantCompany, restaurantComment,
	customerName, customerId, customerPhone, customerAddress, customerLat, customerLng,
	houseNumber, apartment, floor, buildingInfo,
	totalPrice, paymentMethod, needsChange, comment, pickupGroupId,
	status, createdAt, updatedAt`

type MySQLOrderRepository struct {
	db    *sql.DB
	items *MySQLOrderItemRepository
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db:    db,
		items: NewMySQLOrderItemRepository(db),
	}
}

func (r *MySQLOrderRepository) Insert(ctx context.Context, tx *sql.Tx, o domain.Order) error {
	query := `
		INSERT INTO orders (
			id, orderNumber, courierId,
			restaurantName, restaurantAddress, restaurantLat, restaurantLng, restaurantCompany, restaurantComment,
			customerName, customerId, customerPhone, customerAddress, customerLat, customerLng,
			houseNumber, apartment, floor, buildingInfo,
			totalPrice, paymentMethod, needsChange, comment, pickupGroupId,
			status, createdAt, updatedAt
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(ctx, query,
		o.ID, o.OrderNumber, o.CourierID,
		o.RestaurantName, o.RestaurantAddress, o.RestaurantLat, o.RestaurantLng, o.RestaurantCompany, o.RestaurantComment,
		o.CustomerName, o.CustomerID, o.CustomerPhone, o.CustomerAddress, o.CustomerLat, o.CustomerLng,
		o.HouseNumber, o.Apartment, o.Floor, o.BuildingInfo,
		o.TotalPrice, string(o.PaymentMethod), o.NeedsChange, o.Comment, o.PickupGroupID,
		string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", mysql.Classify(err))
	}

	return nil
}

// FindByID loads the order with its items.
func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", mysql.Classify(err))
	}

	items, err := r.items.FindByOrderIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]

	return order, nil
}

// LockForUpdate reads the order row under a row lock held until tx ends.
// Items are not loaded.
func (r *MySQLOrderRepository) LockForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ? FOR UPDATE`

	order, err := scanOrder(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("locking order: %w", mysql.Classify(err))
	}

	return order, nil
}

// UpdateStatus writes the status unless the order is already delivered.
// It reports whether a row was changed.
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status domain.OrderStatus, updatedAt time.Time) (bool, error) {
	query := `UPDATE orders SET status = ?, updatedAt = ? WHERE id = ? AND status <> 'delivered'`

	result, err := tx.ExecContext(ctx, query, string(status), updatedAt, id)
	if err != nil {
		return false, fmt.Errorf("updating order status: %w", mysql.Classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Update applies the non-nil fields of patch. Items are not touched here.
// When the patch carries a status the write is guarded like UpdateStatus.
func (r *MySQLOrderRepository) Update(ctx context.Context, tx *sql.Tx, id string, patch domain.OrderPatch, updatedAt time.Time) (bool, error) {
	sets, args := patchAssignments(patch)
	sets = append(sets, "updatedAt = ?")
	args = append(args, updatedAt, id)

	query := `UPDATE orders SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if patch.Status != nil {
		query += ` AND status <> 'delivered'`
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("updating order: %w", mysql.Classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Delete removes the order. Items and messages go with it through the foreign keys.
func (r *MySQLOrderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", mysql.Classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}

	return nil
}

// ListByCourier returns every order of the courier, newest first.
func (r *MySQLOrderRepository) ListByCourier(ctx context.Context, courierID string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE courierId = ? ORDER BY createdAt DESC, seq DESC`
	return r.list(ctx, "querying orders by courier", query, courierID)
}

// ListActive returns the orders not yet delivered, oldest first.
func (r *MySQLOrderRepository) ListActive(ctx context.Context, courierID string) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE courierId = ? AND status <> 'delivered'
		ORDER BY createdAt ASC, seq ASC
	`
	return r.list(ctx, "querying active orders", query, courierID)
}

func (r *MySQLOrderRepository) ListHistory(ctx context.Context, courierID string, filter domain.OrderHistoryFilter) ([]domain.Order, error) {
	conditions := []string{"courierId = ?"}
	args := []any{courierID}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.CustomerName != "" {
		conditions = append(conditions, `LOWER(customerName) LIKE ? ESCAPE '\\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(filter.CustomerName))+"%")
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, "createdAt >= ?")
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, "createdAt <= ?")
		args = append(args, *filter.DateTo)
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY createdAt DESC, seq DESC`

	return r.list(ctx, "querying order history", query, args...)
}

// Stats aggregates the courier's orders created in [from, to].
func (r *MySQLOrderRepository) Stats(ctx context.Context, courierID string, from, to time.Time) (domain.OrderStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'delivered' THEN 1 END),
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN totalPrice ELSE 0 END), 0)
		FROM orders
		WHERE courierId = ? AND createdAt >= ? AND createdAt <= ?
	`

	var stats domain.OrderStats
	err := r.db.QueryRowContext(ctx, query, courierID, from, to).Scan(
		&stats.TotalOrders, &stats.DeliveredOrders, &stats.TotalEarnings,
	)
	if err != nil {
		return domain.OrderStats{}, fmt.Errorf("querying order stats: %w", mysql.Classify(err))
	}

	return stats, nil
}

func (r *MySQLOrderRepository) list(ctx context.Context, op string, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mysql.Classify(err))
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", mysql.Classify(err))
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	items, err := r.items.FindByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                                      domain.Order
		courierID, restaurantCompany           sql.NullString
		restaurantComment, customerID          sql.NullString
		customerPhone, houseNumber, apartment  sql.NullString
		floor, buildingInfo, comment, pickupID sql.NullString
		paymentMethod, status                  string
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber, &courierID,
		&o.RestaurantName, &o.RestaurantAddress, &o.RestaurantLat, &o.RestaurantLng, &restaurantCompany, &restaurantComment,
		&o.CustomerName, &customerID, &customerPhone, &o.CustomerAddress, &o.CustomerLat, &o.CustomerLng,
		&houseNumber, &apartment, &floor, &buildingInfo,
		&o.TotalPrice, &paymentMethod, &o.NeedsChange, &comment, &pickupID,
		&status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = domain.PaymentMethod(paymentMethod)
	o.Status = domain.OrderStatus(status)
	o.CourierID = nullString(courierID)
	o.RestaurantCompany = nullString(restaurantCompany)
	o.RestaurantComment = nullString(restaurantComment)
	o.CustomerID = nullString(customerID)
	o.CustomerPhone = nullString(customerPhone)
	o.HouseNumber = nullString(houseNumber)
	o.Apartment = nullString(apartment)
	o.Floor = nullString(floor)
	o.BuildingInfo = nullString(buildingInfo)
	o.Comment = nullString(comment)
	o.PickupGroupID = nullString(pickupID)

	return &o, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func patchAssignments(p domain.OrderPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if p.OrderNumber != nil {
		add("orderNumber", *p.OrderNumber)
	}
	if p.RestaurantName != nil {
		add("restaurantName", *p.RestaurantName)
	}
	if p.RestaurantAddress != nil {
		add("restaurantAddress", *p.RestaurantAddress)
	}
	if p.RestaurantLat != nil {
		add("restaurantLat", *p.RestaurantLat)
	}
	if p.RestaurantLng != nil {
		add("restaurantLng", *p.RestaurantLng)
	}
	if p.RestaurantCompany != nil {
		add("restaurantCompany", *p.RestaurantCompany)
	}
	if p.RestaurantComment != nil {
		add("restaurantComment", *p.RestaurantComment)
	}
	if p.CustomerName != nil {
		add("customerName", *p.CustomerName)
	}
	if p.CustomerPhone != nil {
		add("customerPhone", *p.CustomerPhone)
	}
	if p.CustomerAddress != nil {
		add("customerAddress", *p.CustomerAddress)
	}
	if p.CustomerLat != nil {
		add("customerLat", *p.CustomerLat)
	}
	if p.CustomerLng != nil {
		add("customerLng", *p.CustomerLng)
	}
	if p.HouseNumber != nil {
		add("houseNumber", *p.HouseNumber)
	}
	if p.Apartment != nil {
		add("apartment", *p.Apartment)
	}
	if p.Floor != nil {
		add("floor", *p.Floor)
	}
	if p.BuildingInfo != nil {
		add("buildingInfo", *p.BuildingInfo)
	}
	if p.TotalPrice != nil {
		add("totalPrice", *p.TotalPrice)
	}
	if p.PaymentMethod != nil {
		add("paymentMethod", string(*p.PaymentMethod))
	}
	if p.NeedsChange != nil {
		add("needsChange", *p.NeedsChange)
	}
	if p.Comment != nil {
		add("comment", *p.Comment)
	}
	if p.PickupGroupID != nil {
		add("pickupGroupId", *p.PickupGroupID)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}

	return sets, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
