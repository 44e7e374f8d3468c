package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	vehicleID := "contract-vehicle-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.NewSnapshot(vehicleID)
		snap.Mode = domain.ModeRTL
		snap.Phase = domain.PhaseReturn
		snap.StartLock = true
		snap.Item = domain.MissionItem{
			Lat:          47.3977,
			Lon:          8.5456,
			Altitude:     548,
			Yaw:          domain.Yaw(-1.25),
			NavCmd:       domain.NavCmdWaypoint,
			Autocontinue: true,
			Origin:       domain.OriginOnboard,
		}
		snap.Triplet.Current = domain.PositionSetpoint{Valid: true, Type: domain.SetpointPosition, Alt: 548}
		snap.History = []domain.Phase{domain.PhaseClimb, domain.PhaseReturn}

		err := store.Save(ctx, vehicleID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, vehicleID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.PhaseReturn, loaded.Phase)
		assert.Equal(t, domain.ModeRTL, loaded.Mode)
		assert.True(t, loaded.StartLock)
		assert.Equal(t, domain.NavCmdWaypoint, loaded.Item.NavCmd)
		require.NotNil(t, loaded.Item.Yaw, "optional yaw must survive persistence")
		assert.InDelta(t, -1.25, *loaded.Item.Yaw, 1e-9)
		assert.True(t, loaded.Triplet.Current.Valid)
		assert.Equal(t, []domain.Phase{domain.PhaseClimb, domain.PhaseReturn}, loaded.History)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+vehicleID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, vehicleID, domain.NewSnapshot(vehicleID))
		require.NoError(t, err)

		err = store.Delete(ctx, vehicleID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, vehicleID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := vehicleID + "-1"
		id2 := vehicleID + "-2"
		_ = store.Save(ctx, id1, domain.NewSnapshot(id1))
		_ = store.Save(ctx, id2, domain.NewSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		vehicles, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, vehicles, id1)
		assert.Contains(t, vehicles, id2)
	})
}
