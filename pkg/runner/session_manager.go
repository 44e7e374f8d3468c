package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/homeward/internal/navigator"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
)

// SessionManager handles the lifecycle of a durable guidance session.
// It coordinates between the Runner, the Navigator, and the SnapshotStore.
type SessionManager struct {
	Store ports.SnapshotStore
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(store ports.SnapshotStore) *SessionManager {
	return &SessionManager{
		Store: store,
	}
}

// LoadOrStart restores the navigator from a stored session if one exists,
// otherwise saves its current state to reserve the ID.
// Returns true if a session was resumed.
func (sm *SessionManager) LoadOrStart(ctx context.Context, nav *navigator.Navigator, vehicleID string) (bool, error) {
	if vehicleID == "" || sm.Store == nil {
		// Ephemeral session
		return false, nil
	}

	snap, err := sm.Store.Load(ctx, vehicleID)
	if err == nil {
		nav.Restore(snap)
		return true, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return false, fmt.Errorf("failed to load session %s: %w", vehicleID, err)
	}

	if err := sm.Store.Save(ctx, vehicleID, nav.Snapshot(vehicleID)); err != nil {
		return false, fmt.Errorf("failed to initialize session %s: %w", vehicleID, err)
	}
	return false, nil
}
