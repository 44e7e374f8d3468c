package navigator_test

import (
	"testing"

	"github.com/aretw0/homeward/internal/navigator"
	"github.com/aretw0/homeward/internal/testutils"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var home = domain.HomePosition{Lat: 47.397742, Lon: 8.545594, Alt: 488}

func newNavigator(t *testing.T, landDelay float64, opts ...navigator.Option) *navigator.Navigator {
	t.Helper()
	params := testutils.Params{
		ports.ParamReturnAltitude:  60,
		ports.ParamDescendAltitude: 20,
		ports.ParamLandDelay:       landDelay,
	}
	clock := testutils.NewClock()
	opts = append([]navigator.Option{navigator.WithClock(clock.Now)}, opts...)
	n := navigator.New(navigator.Config{Home: home}, params, opts...)
	n.UpdateVehicle(domain.GlobalPosition{Lat: home.Lat + 0.001, Lon: home.Lon, Alt: 520}, false)
	return n
}

// fly puts the vehicle on the current setpoint and steps once.
func fly(n *navigator.Navigator) {
	sp := n.Triplet().Current
	pos := domain.GlobalPosition{Lat: sp.Lat, Lon: sp.Lon, Alt: sp.Alt}
	if sp.Yaw != nil {
		pos.Yaw = *sp.Yaw
	}
	n.UpdateVehicle(pos, false)
	n.Step()
}

func TestNavigator_StartsInHold(t *testing.T) {
	n := newNavigator(t, 0)
	assert.Equal(t, domain.ModeHold, n.Mode())

	assert.True(t, n.Step(), "hold activation publishes a loiter setpoint")
	cur := n.Triplet().Current
	assert.True(t, cur.Valid)
	assert.Equal(t, domain.SetpointLoiter, cur.Type)
	assert.Equal(t, 520.0, cur.Alt)

	assert.False(t, n.Step(), "holding does not republish")
	assert.Equal(t, domain.PhaseNone, n.Phase())
}

func TestNavigator_RTLSequence(t *testing.T) {
	var entered []domain.Phase
	hooks := domain.LifecycleHooks{
		OnPhaseEnter: func(e *domain.PhaseEvent) { entered = append(entered, e.Phase) },
	}
	n := newNavigator(t, 0, navigator.WithLifecycleHooks(hooks), navigator.WithAdvisorySink(&testutils.Advisories{}))

	require.NoError(t, n.SetMode(domain.ModeRTL))
	assert.True(t, n.Step())
	assert.Equal(t, domain.PhaseClimb, n.Phase())
	assert.Equal(t, 548.0, n.Triplet().Current.Alt)

	for range 3 {
		fly(n)
	}
	assert.Equal(t, domain.PhaseLand, n.Phase())

	n.UpdateVehicle(domain.GlobalPosition{Lat: home.Lat, Lon: home.Lon, Alt: home.Alt}, true)
	n.Step()
	assert.Equal(t, domain.PhaseLanded, n.Phase())
	assert.Equal(t, []domain.Phase{
		domain.PhaseClimb, domain.PhaseReturn, domain.PhaseDescend, domain.PhaseLand, domain.PhaseLanded,
	}, entered)
}

func TestNavigator_HoldInterruptsRTL(t *testing.T) {
	n := newNavigator(t, -1)
	require.NoError(t, n.SetMode(domain.ModeRTL))
	n.Step()
	fly(n)
	require.Equal(t, domain.PhaseReturn, n.Phase())

	require.NoError(t, n.SetMode(domain.ModeHold))
	n.Step()
	assert.Equal(t, domain.PhaseNone, n.Phase(), "leaving before the loiter restarts the sequence")
}

func TestNavigator_HoldKeepsRTLLoiter(t *testing.T) {
	n := newNavigator(t, -1)
	require.NoError(t, n.SetMode(domain.ModeRTL))
	n.Step()
	for range 3 {
		fly(n)
	}
	require.Equal(t, domain.PhaseLoiter, n.Phase())
	loiter := n.Triplet().Current

	require.NoError(t, n.SetMode(domain.ModeHold))
	n.Step()
	assert.Equal(t, domain.PhaseLoiter, n.Phase())
	assert.Equal(t, loiter.Alt, n.Triplet().Current.Alt, "hold keeps the loiter setpoint")

	require.NoError(t, n.SetMode(domain.ModeRTL))
	n.Step()
	assert.Equal(t, domain.PhaseLoiter, n.Phase(), "RTL resumes the held loiter")
}

func TestNavigator_RepositionResetsRTL(t *testing.T) {
	n := newNavigator(t, -1)
	require.NoError(t, n.SetMode(domain.ModeRTL))
	n.Step()
	for range 3 {
		fly(n)
	}
	require.Equal(t, domain.PhaseLoiter, n.Phase())

	n.Reposition(47.40, 8.55, 600)
	assert.Equal(t, domain.ModeReposition, n.Mode())
	assert.True(t, n.Step())
	assert.Equal(t, domain.PhaseNone, n.Phase())

	cur := n.Triplet().Current
	assert.Equal(t, 47.40, cur.Lat)
	assert.Equal(t, 600.0, cur.Alt)
	assert.Equal(t, domain.SetpointLoiter, cur.Type)
}

func TestNavigator_SetModeRejectsUnknown(t *testing.T) {
	n := newNavigator(t, 0)
	err := n.SetMode("takeoff")
	assert.ErrorIs(t, err, domain.ErrUnknownMode)
	assert.Equal(t, domain.ModeHold, n.Mode())
}

func TestNavigator_SnapshotRestore(t *testing.T) {
	n := newNavigator(t, 0)
	require.NoError(t, n.SetMode(domain.ModeRTL))
	n.Step()
	fly(n)
	require.Equal(t, domain.PhaseReturn, n.Phase())

	snap := n.Snapshot("vehicle-1")
	assert.Equal(t, "vehicle-1", snap.VehicleID)
	assert.Equal(t, domain.ModeRTL, snap.Mode)
	assert.Equal(t, domain.PhaseReturn, snap.Phase)
	assert.True(t, snap.StartLock)
	assert.Equal(t, home, snap.Home)

	restored := newNavigator(t, 0)
	restored.Restore(snap)
	assert.Equal(t, domain.ModeRTL, restored.Mode())
	assert.Equal(t, domain.PhaseReturn, restored.Phase())

	assert.True(t, restored.Step())
	assert.Equal(t, domain.PhaseReturn, restored.Phase(), "restored sequence resumes without re-deciding")
	fly(restored)
	assert.Equal(t, domain.PhaseDescend, restored.Phase())
}
