package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"courierhub/internal/infrastructure/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/courierhub_test?parseTime=true&loc=UTC&clientFoundRows=true"

// SetupTestDB opens the integration database named by TEST_DB_DSN, falling back
// to a local courierhub_test schema. The test is skipped when it is unreachable.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties every table, children first, and closes db.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	for i := len(mysql.Tables) - 1; i >= 0; i-- {
		table := mysql.Tables[i].Name
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables applies the production schema and starts from empty tables.
func SetupTestTables(t *testing.T, db *sql.DB) {
	if err := mysql.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	for i := len(mysql.Tables) - 1; i >= 0; i-- {
		table := mysql.Tables[i].Name
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// SeedCourier inserts a user and its courier and returns the courier id.
func SeedCourier(t *testing.T, db *sql.DB, userID, courierID string) string {
	_, err := db.Exec(`
		INSERT INTO users (id, username, email, firstName, lastName, createdAt, updatedAt)
		VALUES (?, ?, ?, 'Courier', '', UTC_TIMESTAMP(6), UTC_TIMESTAMP(6))`,
		userID, userID, userID+"@courier.local",
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO couriers (id, userId, name, isOnline, updatedAt)
		VALUES (?, ?, 'Courier', 0, UTC_TIMESTAMP(6))`,
		courierID, userID,
	)
	if err != nil {
		t.Fatalf("failed to seed courier: %v", err)
	}

	return courierID
}
