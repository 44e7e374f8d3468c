package rtl_test

import (
	"math"
	"testing"
	"time"

	"github.com/aretw0/homeward/internal/rtl"
	"github.com/aretw0/homeward/internal/testutils"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	nav        *testutils.FakeNav
	params     testutils.Params
	clock      *testutils.Clock
	advisories *testutils.Advisories
	ctrl       *rtl.Controller
}

func newFixture(t *testing.T, homeAlt, posAlt float64, params testutils.Params, opts ...rtl.Option) *fixture {
	t.Helper()
	f := &fixture{
		nav:        testutils.NewFakeNav(homeAlt),
		params:     params,
		clock:      testutils.NewClock(),
		advisories: &testutils.Advisories{},
	}
	f.nav.Position.Alt = posAlt
	opts = append([]rtl.Option{rtl.WithClock(f.clock.Now), rtl.WithAdvisorySink(f.advisories)}, opts...)
	f.ctrl = rtl.New(f.nav, params, opts...)
	return f
}

// step flies the vehicle onto the current setpoint and runs one active cycle.
func (f *fixture) step() {
	f.nav.MoveToCurrentSetpoint()
	f.ctrl.OnActive()
}

func defaultParams(landDelay float64) testutils.Params {
	return testutils.Params{
		ports.ParamReturnAltitude:  50,
		ports.ParamDescendAltitude: 20,
		ports.ParamLandDelay:       landDelay,
	}
}

func TestController_FullSequence_ImmediateLanding(t *testing.T) {
	f := newFixture(t, 100, 80, defaultParams(0))
	f.nav.Position.Lat = 0.001

	f.ctrl.OnActivation()
	require.Equal(t, domain.PhaseClimb, f.ctrl.Phase())
	item := f.ctrl.Item()
	assert.Equal(t, 150.0, item.Altitude)
	assert.False(t, item.AltitudeIsRelative)
	assert.Nil(t, item.Yaw, "climb keeps the current heading")
	assert.Equal(t, 0.001, item.Lat)
	assert.Equal(t, domain.NavCmdWaypoint, item.NavCmd)
	assert.True(t, item.Autocontinue)
	assert.False(t, f.ctrl.StartLocked())
	assert.Equal(t, "RTL: climb to 150 m (50 m above home)", f.advisories.Last())

	cur := f.nav.Setpoints.Current
	assert.True(t, cur.Valid)
	assert.Equal(t, domain.SetpointPosition, cur.Type)
	assert.Equal(t, 150.0, cur.Alt)

	f.step()
	require.Equal(t, domain.PhaseReturn, f.ctrl.Phase())
	item = f.ctrl.Item()
	assert.Equal(t, 0.0, item.Lat)
	assert.Equal(t, 0.0, item.Lon)
	assert.Equal(t, 150.0, item.Altitude, "return keeps the climb altitude")
	require.NotNil(t, item.Yaw)
	assert.InDelta(t, math.Pi, math.Abs(*item.Yaw), 1e-9, "home is due south of the climb point")
	assert.True(t, f.ctrl.StartLocked())
	assert.True(t, f.nav.Setpoints.Previous.Valid)
	assert.Equal(t, 0.001, f.nav.Setpoints.Previous.Lat)
	assert.Equal(t, "RTL: return at 150 m (50 m above home)", f.advisories.Last())

	f.step()
	require.Equal(t, domain.PhaseDescend, f.ctrl.Phase())
	item = f.ctrl.Item()
	assert.Equal(t, 120.0, item.Altitude)
	assert.Equal(t, domain.NavCmdLoiterTimeLimit, item.NavCmd)
	assert.Equal(t, 0.0, item.TimeInside)
	assert.False(t, item.Autocontinue)
	require.NotNil(t, item.Yaw)
	assert.Equal(t, 0.0, *item.Yaw)
	assert.Equal(t, 0.001, f.nav.Setpoints.Previous.Lat, "previous is frozen once the return starts")
	assert.Equal(t, "RTL: descend to 120 m (20 m above home)", f.advisories.Last())

	f.step()
	require.Equal(t, domain.PhaseLand, f.ctrl.Phase(), "zero land delay skips the loiter")
	assert.Equal(t, domain.NavCmdLand, f.ctrl.Item().NavCmd)
	assert.Equal(t, domain.SetpointLand, f.nav.Setpoints.Current.Type)
	assert.Equal(t, "RTL: land at home", f.advisories.Last())

	// Not landed yet: the land item stays outstanding.
	f.step()
	assert.Equal(t, domain.PhaseLand, f.ctrl.Phase())

	f.nav.IsLanded = true
	f.ctrl.OnActive()
	require.Equal(t, domain.PhaseLanded, f.ctrl.Phase())
	assert.Equal(t, domain.NavCmdIdle, f.ctrl.Item().NavCmd)
	assert.Equal(t, "RTL: completed, landed", f.advisories.Last())

	assert.Equal(t, []domain.Phase{
		domain.PhaseClimb, domain.PhaseReturn, domain.PhaseDescend, domain.PhaseLand, domain.PhaseLanded,
	}, f.ctrl.History())
}

func TestController_TimedLoiter(t *testing.T) {
	f := newFixture(t, 100, 200, defaultParams(5))

	f.ctrl.OnActivation()
	require.Equal(t, domain.PhaseReturn, f.ctrl.Phase())
	f.step()
	require.Equal(t, domain.PhaseDescend, f.ctrl.Phase())
	f.step()
	require.Equal(t, domain.PhaseLoiter, f.ctrl.Phase())

	item := f.ctrl.Item()
	assert.Equal(t, domain.NavCmdLoiterTimeLimit, item.NavCmd)
	assert.True(t, item.Autocontinue)
	assert.Equal(t, 5.0, item.TimeInside)
	assert.Equal(t, 120.0, item.Altitude)
	assert.True(t, f.nav.CanLoiter)
	assert.Equal(t, domain.SetpointLoiter, f.nav.Setpoints.Current.Type)
	assert.Equal(t, "RTL: loiter 5.0s", f.advisories.Last())

	f.step()
	assert.Equal(t, domain.PhaseLoiter, f.ctrl.Phase(), "loiter time has not elapsed")

	f.clock.Advance(4 * time.Second)
	f.step()
	assert.Equal(t, domain.PhaseLoiter, f.ctrl.Phase())

	f.clock.Advance(time.Second)
	f.step()
	assert.Equal(t, domain.PhaseLand, f.ctrl.Phase())
	assert.False(t, f.nav.CanLoiter, "can-loiter is cleared by every new target")
}

func TestController_UnlimitedLoiter(t *testing.T) {
	f := newFixture(t, 100, 200, defaultParams(-1))

	f.ctrl.OnActivation()
	f.step()
	f.step()
	require.Equal(t, domain.PhaseLoiter, f.ctrl.Phase())

	item := f.ctrl.Item()
	assert.Equal(t, domain.NavCmdLoiterUnlimited, item.NavCmd)
	assert.False(t, item.Autocontinue)
	assert.Equal(t, 0.0, item.TimeInside)
	assert.Equal(t, "RTL: completed, loiter", f.advisories.Last())

	for range 10 {
		f.clock.Advance(time.Minute)
		f.step()
	}
	assert.Equal(t, domain.PhaseLoiter, f.ctrl.Phase(), "an unlimited loiter is never reached")
}

func TestController_ItemIsDetached(t *testing.T) {
	f := newFixture(t, 100, 200, defaultParams(-1))
	f.nav.Home.Yaw = 0.5

	f.ctrl.OnActivation()
	f.step()
	f.step()
	require.Equal(t, domain.PhaseLoiter, f.ctrl.Phase())

	item := f.ctrl.Item()
	require.NotNil(t, item.Yaw)
	*item.Yaw = 3
	assert.Equal(t, 0.5, *f.ctrl.Item().Yaw)
}

func TestController_LandDelayBanding(t *testing.T) {
	tests := []struct {
		name      string
		landDelay float64
		want      domain.Phase
	}{
		{"exact zero", 0, domain.PhaseLand},
		{"small positive", 0.005, domain.PhaseLand},
		{"small negative", -0.005, domain.PhaseLand},
		{"positive", 0.5, domain.PhaseLoiter},
		{"negative", -0.5, domain.PhaseLoiter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 100, 200, defaultParams(tt.landDelay))
			f.ctrl.OnActivation()
			f.step()
			require.Equal(t, domain.PhaseDescend, f.ctrl.Phase())
			f.step()
			assert.Equal(t, tt.want, f.ctrl.Phase())
		})
	}
}

func TestController_EntryDecision(t *testing.T) {
	tests := []struct {
		name    string
		posAlt  float64
		want    domain.Phase
		wantAlt float64
	}{
		{"below return altitude", 149.9, domain.PhaseClimb, 150},
		{"at return altitude", 150, domain.PhaseReturn, 150},
		{"above return altitude", 180, domain.PhaseReturn, 180},
		{"below home", 90, domain.PhaseClimb, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 100, tt.posAlt, defaultParams(0))
			f.ctrl.OnActivation()
			assert.Equal(t, tt.want, f.ctrl.Phase())
			assert.Equal(t, tt.wantAlt, f.ctrl.Item().Altitude)
			assert.Equal(t, tt.wantAlt, f.nav.Setpoints.Current.Alt)
		})
	}
}

func TestController_ActivationWhileLanded(t *testing.T) {
	f := newFixture(t, 100, 300, defaultParams(0))
	f.nav.IsLanded = true

	f.ctrl.OnActivation()
	require.Equal(t, domain.PhaseLanded, f.ctrl.Phase())
	assert.Equal(t, []string{"no RTL when landed", "RTL: completed, landed"}, f.advisories.Messages)
	assert.Equal(t, domain.SeverityCritical, f.advisories.Severities[0])
	assert.Equal(t, domain.NavCmdIdle, f.ctrl.Item().NavCmd)
	assert.Equal(t, domain.SetpointIdle, f.nav.Setpoints.Current.Type)

	f.step()
	assert.Equal(t, domain.PhaseLanded, f.ctrl.Phase())
	assert.Len(t, f.advisories.Messages, 2, "landed produces no further targets")
}

func TestController_NextIsInvalidated(t *testing.T) {
	f := newFixture(t, 100, 80, defaultParams(0))
	f.nav.Setpoints.Next = domain.PositionSetpoint{Valid: true, Lat: 1, Lon: 1}

	f.ctrl.OnActivation()
	assert.False(t, f.nav.Setpoints.Next.Valid)
	assert.Equal(t, 1, f.nav.TripletUpdates)

	f.nav.Setpoints.Next.Valid = true
	f.step()
	assert.False(t, f.nav.Setpoints.Next.Valid)
	assert.Equal(t, 2, f.nav.TripletUpdates)
}

func TestController_OnInactive(t *testing.T) {
	t.Run("resets when the setpoint moved away", func(t *testing.T) {
		f := newFixture(t, 100, 80, defaultParams(0))
		f.ctrl.OnActivation()
		f.step()
		require.Equal(t, domain.PhaseReturn, f.ctrl.Phase())

		f.ctrl.OnInactive()
		assert.Equal(t, domain.PhaseNone, f.ctrl.Phase())
		assert.Empty(t, f.ctrl.History())

		// Re-entry re-runs the decision from the current altitude.
		f.ctrl.OnActivation()
		assert.Equal(t, domain.PhaseReturn, f.ctrl.Phase())
		assert.True(t, f.ctrl.StartLocked())
	})

	t.Run("keeps a loiter that may continue", func(t *testing.T) {
		f := newFixture(t, 100, 200, defaultParams(-1))
		f.ctrl.OnActivation()
		f.step()
		f.step()
		require.Equal(t, domain.PhaseLoiter, f.ctrl.Phase())

		f.ctrl.OnInactive()
		assert.Equal(t, domain.PhaseLoiter, f.ctrl.Phase())

		f.ctrl.OnActivation()
		assert.Equal(t, domain.PhaseLoiter, f.ctrl.Phase(), "reactivation resumes the held phase")
		assert.True(t, f.nav.CanLoiter)
	})
}

func TestController_ResumeDoesNotRedecide(t *testing.T) {
	f := newFixture(t, 100, 80, defaultParams(0))
	f.ctrl.OnActivation()
	require.Equal(t, domain.PhaseClimb, f.ctrl.Phase())

	// Something else took the setpoint, but nothing reset the controller.
	f.nav.Position.Alt = 400
	f.ctrl.OnActivation()
	assert.Equal(t, domain.PhaseClimb, f.ctrl.Phase())
	assert.Equal(t, 150.0, f.ctrl.Item().Altitude)
}

func TestController_ParametersAreReread(t *testing.T) {
	params := defaultParams(0)
	f := newFixture(t, 100, 80, params)

	params[ports.ParamReturnAltitude] = 70
	f.ctrl.OnActivation()
	assert.Equal(t, 170.0, f.ctrl.Item().Altitude)

	f.step()
	params[ports.ParamDescendAltitude] = 35
	f.step()
	require.Equal(t, domain.PhaseDescend, f.ctrl.Phase())
	assert.Equal(t, 135.0, f.ctrl.Item().Altitude)
}

func TestController_MissingParametersUseDefaults(t *testing.T) {
	f := newFixture(t, 0, 10, testutils.Params{})

	f.ctrl.OnActivation()
	require.Equal(t, domain.PhaseClimb, f.ctrl.Phase())
	assert.Equal(t, ports.DefaultReturnAltitude, f.ctrl.Item().Altitude)
}

func TestController_AdvisoryTruncatesAltitudes(t *testing.T) {
	params := defaultParams(0)
	params[ports.ParamReturnAltitude] = 50.25
	f := newFixture(t, 100.5, 80, params)

	f.ctrl.OnActivation()
	assert.Equal(t, "RTL: climb to 150 m (50 m above home)", f.advisories.Last())
}

func TestController_LifecycleHooks(t *testing.T) {
	var entered, left []domain.Phase
	var targets int
	var advisories []string

	hooks := domain.LifecycleHooks{
		OnPhaseEnter:    func(e *domain.PhaseEvent) { entered = append(entered, e.Phase) },
		OnPhaseLeave:    func(e *domain.PhaseEvent) { left = append(left, e.Phase) },
		OnTargetChanged: func(*domain.TargetEvent) { targets++ },
		OnAdvisory:      func(e *domain.AdvisoryEvent) { advisories = append(advisories, e.Advisory.Message) },
	}

	f := newFixture(t, 100, 80, defaultParams(0), rtl.WithLifecycleHooks(hooks))
	f.ctrl.OnActivation()
	f.step()

	assert.Equal(t, []domain.Phase{domain.PhaseClimb, domain.PhaseReturn}, entered)
	assert.Equal(t, []domain.Phase{domain.PhaseNone, domain.PhaseClimb}, left)
	assert.Equal(t, 2, targets)
	assert.Equal(t, f.advisories.Messages, advisories)
}

func TestController_SnapshotRestore(t *testing.T) {
	f := newFixture(t, 100, 80, defaultParams(0))
	f.ctrl.OnActivation()
	f.step()
	require.Equal(t, domain.PhaseReturn, f.ctrl.Phase())

	snap := domain.NewSnapshot("v1")
	f.ctrl.Snapshot(snap)
	assert.Equal(t, domain.PhaseReturn, snap.Phase)
	assert.True(t, snap.StartLock)
	assert.Equal(t, []domain.Phase{domain.PhaseClimb, domain.PhaseReturn}, snap.History)

	other := newFixture(t, 100, 150, defaultParams(0))
	other.nav.Setpoints = f.nav.Setpoints
	other.ctrl.Restore(snap)
	assert.Equal(t, domain.PhaseReturn, other.ctrl.Phase())

	other.ctrl.OnActivation()
	assert.Equal(t, domain.PhaseReturn, other.ctrl.Phase())
	assert.Equal(t, 150.0, other.ctrl.Item().Altitude)

	other.step()
	assert.Equal(t, domain.PhaseDescend, other.ctrl.Phase())
}
