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

func TestNewMySQLSessionRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLSessionRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestSessionRepository_FindByID_DecodesPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expire := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT sid, sess, expire FROM sessions WHERE sid = ?").
		WithArgs("sid-1").
		WillReturnRows(sqlmock.NewRows([]string{"sid", "sess", "expire"}).
			AddRow("sid-1", []byte(`{"userId":"courier-1","username":"courier","courierName":"Courier","isAuthenticated":true}`), expire))

	repo := NewMySQLSessionRepository(db)
	session, err := repo.FindByID(context.Background(), "sid-1")

	require.NoError(t, err)
	assert.Equal(t, "courier-1", session.Data.UserID)
	assert.True(t, session.Data.IsAuthenticated)
	assert.Equal(t, expire, session.Expire)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_FindByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT sid, sess, expire FROM sessions").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewMySQLSessionRepository(db)
	_, err = repo.FindByID(context.Background(), "missing")

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestSessionRepository_FindByID_ConnectionLostIsStorageUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT sid, sess, expire FROM sessions").
		WithArgs("sid-1").
		WillReturnError(mysqldriver.ErrInvalidConn)

	repo := NewMySQLSessionRepository(db)
	_, err = repo.FindByID(context.Background(), "sid-1")

	_, ok := errors.IsStorageUnavailableError(err)
	assert.True(t, ok)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("DELETE FROM sessions WHERE expire <= ?").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	repo := NewMySQLSessionRepository(db)
	n, err := repo.DeleteExpired(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Integration Tests

func TestSessionRepository_SaveFindDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLSessionRepository(db)
	ctx := context.Background()

	session := domain.Session{
		ID:     "sid-integration",
		Data:   domain.SessionData{UserID: "courier-1", Username: "courier", CourierName: "Courier", IsAuthenticated: true},
		Expire: time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Save(ctx, session))

	found, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Data, found.Data)
	assert.True(t, session.Expire.Equal(found.Expire))

	require.NoError(t, repo.Delete(ctx, session.ID))
	_, err = repo.FindByID(ctx, session.ID)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)

	// deleting twice is harmless
	assert.NoError(t, repo.Delete(ctx, session.ID))
}

func TestSessionRepository_DeleteExpired_KeepsLiveSessions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, domain.Session{ID: "old", Expire: now.Add(-time.Minute)}))
	require.NoError(t, repo.Save(ctx, domain.Session{ID: "live", Expire: now.Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByID(ctx, "live")
	assert.NoError(t, err)
}
