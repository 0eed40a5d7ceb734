package users

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"cookbook/internal/db"
	apperr "cookbook/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	database, err := db.OpenSQLite(fmt.Sprintf("file:users-%s?mode=memory&cache=shared", name), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	require.NoError(t, db.AutoMigrate(database))

	return NewStore(database)
}

func ada() NewUser {
	return NewUser{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: "hash",
	}
}

func TestCreateAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, ada())
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	byName, err := store.FindByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "Ada", byName.FirstName)
	assert.Equal(t, "hash", byName.Password)

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", byID.Username)
}

func TestCreateRejectsTakenUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, ada())
	require.NoError(t, err)

	again := ada()
	again.FirstName = "Other"
	_, err = store.Create(ctx, again)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, apperr.ErrCodeConflict, apperr.CodeOf(err))
	assert.Equal(t, "User with that username already exists. Please Log in", apperr.MessageOf(err, ""))

	existing, err := store.FindByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", existing.FirstName)
}

func TestCreateRequiresUsername(t *testing.T) {
	store := newTestStore(t)

	in := ada()
	in.Username = "   "
	_, err := store.Create(context.Background(), in)
	assert.Equal(t, apperr.ErrCodeInvalidRequest, apperr.CodeOf(err))
}

func TestFindMissingUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, apperr.ErrCodeNotFound, apperr.CodeOf(err))

	_, err = store.FindByID(ctx, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
