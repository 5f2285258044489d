package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
	"courierhub/internal/testutil"
)

// Integration Tests

func TestUserRepository_CreateIfAbsent_IsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	user := domain.User{
		ID: "courier-1", Username: "courier", Email: "courier@courier.local",
		FirstName: "Courier", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.CreateIfAbsent(ctx, user))

	renamed := user
	renamed.FirstName = "Other"
	require.NoError(t, repo.CreateIfAbsent(ctx, renamed))

	found, err := repo.FindByID(ctx, "courier-1")
	require.NoError(t, err)
	assert.Equal(t, "Courier", found.FirstName)
	assert.Equal(t, "courier@courier.local", found.Email)
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLUserRepository(db)
	user, err := repo.FindByID(context.Background(), "nobody")

	assert.Nil(t, user)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}
