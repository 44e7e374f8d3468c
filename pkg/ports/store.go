package ports

import (
	"context"

	"github.com/aretw0/homeward/pkg/domain"
)

// SnapshotStore defines the interface for persisting vehicle guidance snapshots.
// This allows a host to stop and resume a return-to-launch session.
type SnapshotStore interface {
	// Save persists the snapshot for a given vehicle ID.
	Save(ctx context.Context, vehicleID string, snapshot *domain.Snapshot) error

	// Load retrieves the snapshot for a given vehicle ID.
	// Returns domain.ErrSessionNotFound if the vehicle has no snapshot.
	Load(ctx context.Context, vehicleID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given vehicle ID.
	Delete(ctx context.Context, vehicleID string) error

	// List returns the IDs of all stored vehicles.
	List(ctx context.Context) ([]string, error)
}
