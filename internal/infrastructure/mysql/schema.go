package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

type Table struct {
	Name string
	DDL  string
}

// Tables lists the schema in dependency order. Every statement is idempotent.
var Tables = []Table{
	{
		Name: "users",
		DDL: `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(150) NOT NULL,
		firstName VARCHAR(100) NOT NULL DEFAULT '',
		lastName VARCHAR(100) NOT NULL DEFAULT '',
		createdAt DATETIME(6) NOT NULL,
		updatedAt DATETIME(6) NOT NULL
	)`,
	},
	{
		Name: "couriers",
		DDL: `
	CREATE TABLE IF NOT EXISTS couriers (
		id CHAR(36) NOT NULL PRIMARY KEY,
		userId VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		isOnline TINYINT(1) NOT NULL DEFAULT 0,
		currentLat DOUBLE NULL,
		currentLng DOUBLE NULL,
		updatedAt DATETIME(6) NOT NULL,
		FOREIGN KEY (userId) REFERENCES users(id)
	)`,
	},
	{
		Name: "orders",
		DDL: `
	CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		seq BIGINT UNSIGNED NOT NULL AUTO_INCREMENT UNIQUE,
		orderNumber VARCHAR(64) NOT NULL,
		courierId CHAR(36) NULL,
		restaurantName VARCHAR(255) NOT NULL,
		restaurantAddress VARCHAR(500) NOT NULL,
		restaurantLat DOUBLE NOT NULL,
		restaurantLng DOUBLE NOT NULL,
		restaurantCompany VARCHAR(255) NULL,
		restaurantComment TEXT NULL,
		customerName VARCHAR(255) NOT NULL,
		customerId VARCHAR(64) NULL,
		customerPhone VARCHAR(30) NULL,
		customerAddress VARCHAR(500) NOT NULL,
		customerLat DOUBLE NOT NULL,
		customerLng DOUBLE NOT NULL,
		houseNumber VARCHAR(30) NULL,
		apartment VARCHAR(30) NULL,
		floor VARCHAR(30) NULL,
		buildingInfo VARCHAR(255) NULL,
		totalPrice DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		paymentMethod VARCHAR(10) NOT NULL DEFAULT 'cash',
		needsChange TINYINT(1) NOT NULL DEFAULT 0,
		comment TEXT NULL,
		pickupGroupId VARCHAR(64) NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'new',
		createdAt DATETIME(6) NOT NULL,
		updatedAt DATETIME(6) NOT NULL,
		INDEX idx_courier_status (courierId, status),
		INDEX idx_courier_created (courierId, createdAt),
		FOREIGN KEY (courierId) REFERENCES couriers(id)
	)`,
	},
	{
		Name: "order_items",
		DDL: `
	CREATE TABLE IF NOT EXISTS order_items (
		orderId CHAR(36) NOT NULL,
		position INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		quantity INT NOT NULL DEFAULT 1,
		modifiers TEXT NULL,
		PRIMARY KEY (orderId, position),
		FOREIGN KEY (orderId) REFERENCES orders(id) ON DELETE CASCADE
	)`,
	},
	{
		Name: "markers",
		DDL: `
	CREATE TABLE IF NOT EXISTS markers (
		id CHAR(36) NOT NULL PRIMARY KEY,
		courierId CHAR(36) NOT NULL,
		type VARCHAR(20) NOT NULL,
		name VARCHAR(255) NOT NULL,
		address VARCHAR(500) NULL,
		lat DOUBLE NOT NULL,
		lng DOUBLE NOT NULL,
		createdAt DATETIME(6) NOT NULL,
		INDEX idx_courier (courierId),
		FOREIGN KEY (courierId) REFERENCES couriers(id)
	)`,
	},
	{
		Name: "messages",
		DDL: `
	CREATE TABLE IF NOT EXISTS messages (
		id CHAR(36) NOT NULL PRIMARY KEY,
		seq BIGINT UNSIGNED NOT NULL AUTO_INCREMENT UNIQUE,
		orderId CHAR(36) NOT NULL,
		senderId VARCHAR(64) NOT NULL,
		senderType VARCHAR(20) NOT NULL,
		content TEXT NOT NULL,
		isRead TINYINT(1) NOT NULL DEFAULT 0,
		createdAt DATETIME(6) NOT NULL,
		INDEX idx_order (orderId),
		FOREIGN KEY (orderId) REFERENCES orders(id) ON DELETE CASCADE
	)`,
	},
	{
		Name: "user_sessions",
		DDL: `
	CREATE TABLE IF NOT EXISTS user_sessions (
		userId VARCHAR(64) NOT NULL PRIMARY KEY,
		sessionId VARCHAR(128) NOT NULL,
		deviceInfo VARCHAR(500) NOT NULL DEFAULT '',
		ipAddress VARCHAR(64) NOT NULL DEFAULT '',
		createdAt DATETIME(6) NOT NULL
	)`,
	},
	{
		Name: "sessions",
		DDL: `
	CREATE TABLE IF NOT EXISTS sessions (
		sid VARCHAR(128) NOT NULL PRIMARY KEY,
		sess JSON NOT NULL,
		expire DATETIME(6) NOT NULL,
		INDEX idx_session_expire (expire)
	)`,
	},
}

// Migrate applies the schema. It stops at the first failing statement.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, tbl := range Tables {
		if _, err := db.ExecContext(ctx, tbl.DDL); err != nil {
			return fmt.Errorf("creating table %s: %w", tbl.Name, err)
		}
	}
	return nil
}
