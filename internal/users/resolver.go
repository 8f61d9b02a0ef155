// Package users maps identities from the identity provider onto internal user rows.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hongminglow/fintrack-be/internal/apperr"
	"github.com/hongminglow/fintrack-be/internal/models"
	"github.com/hongminglow/fintrack-be/internal/storage"
)

var (
	// ErrLookupFailed wraps store errors while searching for a user.
	ErrLookupFailed = errors.New("user lookup failed")
	// ErrCreateFailed wraps store errors while inserting a new user, including
	// losing a first-login race on the unique external id.
	ErrCreateFailed = errors.New("user create failed")
	// ErrUserNotFound is returned by Lookup when no row exists yet.
	ErrUserNotFound = errors.New("user not found")
)

// Identity is what an authenticated session tells us about the caller.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// Resolver finds or creates internal users.
type Resolver struct {
	store storage.UserStore
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store storage.UserStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveOrCreate returns the internal id for the identity, inserting a row on
// first contact. Email and display name of an existing row are left untouched.
func (r *Resolver) ResolveOrCreate(ctx context.Context, id Identity) (uuid.UUID, error) {
	uid := strings.TrimSpace(id.UID)
	if uid == "" {
		return uuid.Nil, apperr.Validation("external identity is required")
	}

	existing, err := r.store.FindUserByFirebaseUID(ctx, uid)
	switch {
	case err == nil:
		return existing.ID, nil
	case !errors.Is(err, storage.ErrNotFound):
		return uuid.Nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	created, err := r.store.CreateUser(ctx, models.User{
		ID:          uuid.New(),
		FirebaseUID: uid,
		Email:       id.Email,
		FullName:    id.DisplayName,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	return created.ID, nil
}

// Lookup returns the internal id for an external uid without creating one.
func (r *Resolver) Lookup(ctx context.Context, uid string) (uuid.UUID, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return uuid.Nil, apperr.Validation("external identity is required")
	}
	user, err := r.store.FindUserByFirebaseUID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	return user.ID, nil
}
