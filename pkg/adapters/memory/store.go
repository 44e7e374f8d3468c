package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/homeward/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, vehicleID string, snapshot *domain.Snapshot) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := snapshot.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[vehicleID] = copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, vehicleID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.data[vehicleID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return snapshot.Clone(), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, vehicleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, vehicleID)
	return nil
}

// List returns stored vehicle IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicles := make([]string, 0, len(s.data))
	for id := range s.data {
		vehicles = append(vehicles, id)
	}
	sort.Strings(vehicles)
	return vehicles, nil
}
