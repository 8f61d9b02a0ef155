package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fintrack-be/internal/apperr"
	"github.com/hongminglow/fintrack-be/internal/models"
	"github.com/hongminglow/fintrack-be/internal/storage"
	"github.com/hongminglow/fintrack-be/internal/storage/memory"
)

func TestResolveOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := NewResolver(store)

	first, err := r.ResolveOrCreate(ctx, Identity{UID: "fb-1", Email: "a@example.com", DisplayName: "Ann"})
	require.NoError(t, err)

	second, err := r.ResolveOrCreate(ctx, Identity{UID: "fb-1", Email: "changed@example.com", DisplayName: "Changed"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	user, err := store.FindUserByFirebaseUID(ctx, "fb-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, "Ann", user.FullName)
}

func TestResolveOrCreateRejectsEmptyUID(t *testing.T) {
	_, err := NewResolver(memory.New()).ResolveOrCreate(context.Background(), Identity{UID: "  "})
	assert.True(t, apperr.IsValidation(err))
}

type failingUserStore struct {
	findErr   error
	createErr error
}

func (f failingUserStore) FindUserByFirebaseUID(context.Context, string) (models.User, error) {
	return models.User{}, f.findErr
}

func (f failingUserStore) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, f.createErr
}

func TestResolveOrCreateFailures(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection refused")

	_, err := NewResolver(failingUserStore{findErr: down}).ResolveOrCreate(ctx, Identity{UID: "x"})
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, down)

	_, err = NewResolver(failingUserStore{findErr: storage.ErrNotFound, createErr: storage.ErrAlreadyExists}).
		ResolveOrCreate(ctx, Identity{UID: "x"})
	assert.ErrorIs(t, err, ErrCreateFailed)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(memory.New())

	_, err := r.Lookup(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	id, err := r.ResolveOrCreate(ctx, Identity{UID: "fb-2"})
	require.NoError(t, err)
	got, err := r.Lookup(ctx, "fb-2")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
