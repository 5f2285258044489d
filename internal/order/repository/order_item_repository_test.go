package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierhub/internal/domain"
	"courierhub/internal/testutil"
)

// Unit Tests

func TestNewMySQLOrderItemRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLOrderItemRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestOrderItemRepository_InsertAll_KeepsPositions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	modifiers := "extra cheese"
	items := []domain.OrderItem{
		{Name: "Margherita", Price: 100, Quantity: 1, Modifiers: &modifiers},
		{Name: "Cola", Price: 25, Quantity: 2},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(
			"o-1", 0, "Margherita", 100.0, 1, &modifiers,
			"o-1", 1, "Cola", 25.0, 2, nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	repo := NewMySQLOrderItemRepository(db)
	require.NoError(t, repo.InsertAll(context.Background(), tx, "o-1", items))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderItemRepository_InsertAll_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)

	repo := NewMySQLOrderItemRepository(db)
	assert.NoError(t, repo.InsertAll(context.Background(), tx, "o-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderItemRepository_FindByOrderIDs_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLOrderItemRepository(db)
	items, err := repo.FindByOrderIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Integration Tests

func TestOrderItemRepository_ReplaceAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	courierID := testutil.SeedCourier(t, db, "courier-1", "c-1")
	order := newTestOrder("o-1", courierID, "Ivan", testNow())
	insertOrder(t, db, order)

	repo := NewMySQLOrderItemRepository(db)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceAll(ctx, tx, "o-1", []domain.OrderItem{{Name: "Soup", Price: 60, Quantity: 3}}))
	require.NoError(t, tx.Commit())

	items, err := repo.FindByOrderIDs(ctx, []string{"o-1"})
	require.NoError(t, err)
	require.Len(t, items["o-1"], 1)
	assert.Equal(t, "Soup", items["o-1"][0].Name)
	assert.Equal(t, 3, items["o-1"][0].Quantity)
}
