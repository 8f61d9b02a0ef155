package onboarding

import (
	"context"
	"errors"

	"github.com/hongminglow/fintrack-be/internal/storage"
)

const completeValue = "true"

// Markers records which clients have finished setup. The flag only ever moves
// from absent to "true".
type Markers interface {
	IsComplete(ctx context.Context, clientID string) (bool, error)
	MarkComplete(ctx context.Context, clientID string) error
}

// StoreMarkers keeps markers in a storage.MarkerStore table.
type StoreMarkers struct {
	store storage.MarkerStore
}

// NewStoreMarkers wraps a marker table.
func NewStoreMarkers(store storage.MarkerStore) *StoreMarkers {
	return &StoreMarkers{store: store}
}

func (m *StoreMarkers) IsComplete(ctx context.Context, clientID string) (bool, error) {
	value, err := m.store.GetMarker(ctx, clientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return value == completeValue, nil
}

func (m *StoreMarkers) MarkComplete(ctx context.Context, clientID string) error {
	return m.store.SetMarker(ctx, clientID, completeValue)
}
