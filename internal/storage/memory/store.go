// Package memory is an in-process storage backend used by tests and by
// STORAGE_DRIVER=memory for local runs.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/fintrack-be/internal/models"
	"github.com/hongminglow/fintrack-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every table in maps guarded by one mutex. Each method is atomic on
// its own; like the Postgres primitives, a delete followed by an insert is not.
type Store struct {
	mu          sync.Mutex
	users       map[string]models.User
	finances    []models.FinanceSnapshot
	expenses    []models.ExpenseRecord
	credentials map[uuid.UUID]models.Credential
	markers     map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]models.User),
		credentials: make(map[uuid.UUID]models.Credential),
		markers:     make(map[string]string),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) FindUserByFirebaseUID(_ context.Context, firebaseUID string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[firebaseUID]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.FirebaseUID]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()
	s.users[user.FirebaseUID] = user
	return user, nil
}

func (s *Store) ListFinances(_ context.Context, userID uuid.UUID) ([]models.FinanceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FinanceSnapshot
	for _, snap := range s.finances {
		if snap.UserID == userID {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *Store) DeleteFinances(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.finances[:0]
	for _, snap := range s.finances {
		if snap.UserID != userID {
			kept = append(kept, snap)
		}
	}
	s.finances = kept
	return nil
}

func (s *Store) InsertFinance(_ context.Context, snapshot models.FinanceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finances = append(s.finances, snapshot)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, userID uuid.UUID) ([]models.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExpenseRecord
	for _, rec := range s.expenses {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) DeleteExpenses(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.expenses[:0]
	for _, rec := range s.expenses {
		if rec.UserID != userID {
			kept = append(kept, rec)
		}
	}
	s.expenses = kept
	return nil
}

func (s *Store) InsertExpenses(_ context.Context, records []models.ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, records...)
	return nil
}

func (s *Store) CreateCredential(_ context.Context, cred models.Credential) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.credentials {
		if strings.EqualFold(existing.Email, cred.Email) {
			return models.Credential{}, storage.ErrAlreadyExists
		}
	}
	if cred.UID == uuid.Nil {
		cred.UID = uuid.New()
	}
	cred.CreatedAt = time.Now().UTC()
	s.credentials[cred.UID] = cred
	return cred, nil
}

func (s *Store) FindCredentialByEmail(_ context.Context, email string) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cred := range s.credentials {
		if strings.EqualFold(cred.Email, email) {
			return cred, nil
		}
	}
	return models.Credential{}, storage.ErrNotFound
}

func (s *Store) FindCredentialByUID(_ context.Context, uid uuid.UUID) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[uid]
	if !ok {
		return models.Credential{}, storage.ErrNotFound
	}
	return cred, nil
}

func (s *Store) UpdateCredentialEmail(_ context.Context, uid uuid.UUID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[uid]
	if !ok {
		return storage.ErrNotFound
	}
	for other, existing := range s.credentials {
		if other != uid && strings.EqualFold(existing.Email, email) {
			return storage.ErrAlreadyExists
		}
	}
	cred.Email = email
	s.credentials[uid] = cred
	return nil
}

func (s *Store) UpdateCredentialPassword(_ context.Context, uid uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[uid]
	if !ok {
		return storage.ErrNotFound
	}
	cred.PasswordHash = passwordHash
	s.credentials[uid] = cred
	return nil
}

func (s *Store) GetMarker(_ context.Context, clientID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.markers[clientID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (s *Store) SetMarker(_ context.Context, clientID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[clientID] = value
	return nil
}
