package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hongminglow/fintrack-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrDuplicateSnapshot indicates more than one finance row exists for a user.
// Readers treat it the same as no data.
var ErrDuplicateSnapshot = errors.New("multiple finance snapshots for user")

// UserStore captures lookup-or-insert persistence for internal users.
type UserStore interface {
	FindUserByFirebaseUID(ctx context.Context, firebaseUID string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
}

// FinanceStore holds the per-user finance rows. Delete and insert are separate
// calls; nothing ties them together.
type FinanceStore interface {
	ListFinances(ctx context.Context, userID uuid.UUID) ([]models.FinanceSnapshot, error)
	DeleteFinances(ctx context.Context, userID uuid.UUID) error
	InsertFinance(ctx context.Context, snapshot models.FinanceSnapshot) error
}

// AtomicFinanceReplacer is implemented by stores that can swap a user's finance
// row in a single transaction.
type AtomicFinanceReplacer interface {
	ReplaceFinance(ctx context.Context, snapshot models.FinanceSnapshot) error
}

// ExpenseStore holds the per-user expense rows.
type ExpenseStore interface {
	ListExpenses(ctx context.Context, userID uuid.UUID) ([]models.ExpenseRecord, error)
	DeleteExpenses(ctx context.Context, userID uuid.UUID) error
	InsertExpenses(ctx context.Context, records []models.ExpenseRecord) error
}

// CredentialStore backs the email/password identity provider.
type CredentialStore interface {
	CreateCredential(ctx context.Context, cred models.Credential) (models.Credential, error)
	FindCredentialByEmail(ctx context.Context, email string) (models.Credential, error)
	FindCredentialByUID(ctx context.Context, uid uuid.UUID) (models.Credential, error)
	UpdateCredentialEmail(ctx context.Context, uid uuid.UUID, email string) error
	UpdateCredentialPassword(ctx context.Context, uid uuid.UUID, passwordHash string) error
}

// MarkerStore is a small key-value table for per-client onboarding markers.
type MarkerStore interface {
	GetMarker(ctx context.Context, clientID string) (string, error)
	SetMarker(ctx context.Context, clientID, value string) error
}

// Store is everything the server needs from a backend.
type Store interface {
	UserStore
	FinanceStore
	ExpenseStore
	CredentialStore
	MarkerStore
	Ping(ctx context.Context) error
	Close()
}
