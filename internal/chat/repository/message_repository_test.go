package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/testutil"
)

// Unit Tests

func TestNewMySQLMessageRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLMessageRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestMessageRepository_Insert_MissingOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO messages").
		WillReturnError(&mysqldriver.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	repo := NewMySQLMessageRepository(db)
	err = repo.Insert(context.Background(), domain.Message{ID: "m-1", OrderID: "missing"})

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestMessageRepository_CountUnread(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM messages WHERE orderId = \\? AND senderType <> \\? AND isRead = 0").
		WithArgs("o-1", "courier").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	repo := NewMySQLMessageRepository(db)
	count, err := repo.CountUnread(context.Background(), "o-1", domain.SenderCourier)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MarkRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE messages SET isRead = 1 WHERE orderId = \? AND isRead = 0 AND id IN \(\?, \?, \?\)`).
		WithArgs("o-1", "m-1", "m-2", "m-3").
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewMySQLMessageRepository(db)
	n, err := repo.MarkRead(context.Background(), "o-1", []string{"m-1", "m-2", "m-3"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MarkRead_NoIDsSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLMessageRepository(db)
	n, err := repo.MarkRead(context.Background(), "o-1", nil)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Integration Tests

func TestMessageRepository_Conversation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	courierID := testutil.SeedCourier(t, db, "courier-1", "c-1")
	_, err := db.Exec(`
		INSERT INTO orders (id, orderNumber, courierId, restaurantName, restaurantAddress, restaurantLat, restaurantLng,
			customerName, customerAddress, customerLat, customerLng, status, createdAt, updatedAt)
		VALUES ('o-1', 'A-1', ?, 'Pizza Place', 'Main St 1', 55.75, 37.61, 'Ivan', 'Side St 2', 55.76, 37.62, 'new',
			UTC_TIMESTAMP(6), UTC_TIMESTAMP(6))`, courierID)
	require.NoError(t, err)

	repo := NewMySQLMessageRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.Insert(ctx, domain.Message{ID: "m-1", OrderID: "o-1", SenderID: "customer-9", SenderType: domain.SenderCustomer, Content: "hi", CreatedAt: now}))
	require.NoError(t, repo.Insert(ctx, domain.Message{ID: "m-2", OrderID: "o-1", SenderID: "c-1", SenderType: domain.SenderCourier, Content: "on my way", CreatedAt: now}))
	require.NoError(t, repo.Insert(ctx, domain.Message{ID: "m-3", OrderID: "o-1", SenderID: "customer-9", SenderType: domain.SenderCustomer, Content: "thanks", CreatedAt: now.Add(time.Second)}))

	messages, err := repo.ListByOrder(ctx, "o-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"m-1", "m-2", "m-3"}, []string{messages[0].ID, messages[1].ID, messages[2].ID})

	unread, err := repo.CountUnread(ctx, "o-1", domain.SenderCourier)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	// m-4 arrives after the courier listed m-1..m-3
	require.NoError(t, repo.Insert(ctx, domain.Message{ID: "m-4", OrderID: "o-1", SenderID: "customer-9", SenderType: domain.SenderCustomer, Content: "hurry", CreatedAt: now.Add(2 * time.Second)}))

	n, err := repo.MarkRead(ctx, "o-1", []string{"m-1", "m-3"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = repo.CountUnread(ctx, "o-1", domain.SenderCourier)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// already read rows are not counted again
	n, err = repo.MarkRead(ctx, "o-1", []string{"m-1", "m-3", "m-4"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// the customer has not read the courier's reply
	unread, err = repo.CountUnread(ctx, "o-1", domain.SenderCustomer)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// messages go away with their order
	_, err = db.Exec(`DELETE FROM orders WHERE id = 'o-1'`)
	require.NoError(t, err)
	messages, err = repo.ListByOrder(ctx, "o-1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
