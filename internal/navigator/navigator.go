// Package navigator hosts the flight phases of a single vehicle: it owns the
// navigation state, selects the active phase and runs one guidance cycle per Step.
package navigator

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/homeward/internal/logging"
	"github.com/aretw0/homeward/internal/rtl"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
)

// Default radii used when Config leaves them unset.
const (
	DefaultLoiterRadius     = 50.0
	DefaultAcceptanceRadius = 10.0
)

// Config holds the static navigation settings of a vehicle.
type Config struct {
	LoiterRadius     float64             `yaml:"loiter_radius" json:"loiter_radius"`
	AcceptanceRadius float64             `yaml:"acceptance_radius" json:"acceptance_radius"`
	FixedWing        bool                `yaml:"fixed_wing" json:"fixed_wing"`
	Home             domain.HomePosition `yaml:"home" json:"home"`
}

// Navigator is safe for concurrent use: the guidance loop calls Step while
// operators change the mode from other goroutines.
type Navigator struct {
	mu       sync.Mutex
	state    *vehicleState
	logger   *slog.Logger
	now      func() time.Time
	hooks    domain.LifecycleHooks
	advisory ports.AdvisorySink

	rtl        *rtl.Controller
	hold       *holdPhase
	reposition *repositionPhase
	phases     map[domain.NavMode]flightPhase

	mode     domain.NavMode
	prevMode domain.NavMode
}

// Option configures the Navigator.
type Option func(*Navigator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithLifecycleHooks registers return-to-launch observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(n *Navigator) {
		n.hooks = n.hooks.Merge(hooks)
	}
}

// WithAdvisorySink routes operator advisories to sink.
func WithAdvisorySink(sink ports.AdvisorySink) Option {
	return func(n *Navigator) {
		n.advisory = sink
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a navigator in hold mode.
func New(cfg Config, params ports.ParameterStore, opts ...Option) *Navigator {
	if cfg.LoiterRadius <= 0 {
		cfg.LoiterRadius = DefaultLoiterRadius
	}
	if cfg.AcceptanceRadius <= 0 {
		cfg.AcceptanceRadius = DefaultAcceptanceRadius
	}

	n := &Navigator{
		state: &vehicleState{
			home:             cfg.Home,
			position:         domain.GlobalPosition{Lat: cfg.Home.Lat, Lon: cfg.Home.Lon, Alt: cfg.Home.Alt, Yaw: cfg.Home.Yaw},
			landed:           true,
			loiterRadius:     cfg.LoiterRadius,
			acceptanceRadius: cfg.AcceptanceRadius,
			fixedWing:        cfg.FixedWing,
		},
		logger: logging.NewNop(),
		now:    time.Now,
		mode:   domain.ModeHold,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.advisory == nil {
		n.advisory = logging.NewAdvisorySink(n.logger)
	}

	n.rtl = rtl.New(n.state, params,
		rtl.WithLogger(n.logger),
		rtl.WithClock(n.now),
		rtl.WithAdvisorySink(n.advisory),
		rtl.WithLifecycleHooks(n.hooks),
	)
	n.hold = &holdPhase{state: n.state}
	n.reposition = &repositionPhase{state: n.state}
	n.phases = map[domain.NavMode]flightPhase{
		domain.ModeHold:       n.hold,
		domain.ModeReposition: n.reposition,
		domain.ModeRTL:        n.rtl,
	}
	return n
}

// modeOrder fixes the dispatch order so cycles are deterministic.
var modeOrder = []domain.NavMode{domain.ModeHold, domain.ModeReposition, domain.ModeRTL}

// Step runs one guidance cycle and reports whether the setpoint triplet changed.
func (n *Navigator) Step() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.state.updated = false

	for _, mode := range modeOrder {
		if mode != n.mode {
			n.phases[mode].OnInactive()
		}
	}

	active := n.phases[n.mode]
	if n.mode != n.prevMode {
		n.logger.Debug("navigation mode activated", "mode", n.mode, "previous", n.prevMode)
		active.OnActivation()
	} else {
		active.OnActive()
	}
	n.prevMode = n.mode

	return n.state.updated
}

// SetMode selects the active flight phase from the next cycle on.
func (n *Navigator) SetMode(mode domain.NavMode) error {
	if _, ok := n.phases[mode]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.mode != mode {
		n.logger.Info("navigation mode changed", "from", n.mode, "to", mode)
	}
	n.mode = mode
	return nil
}

// Reposition commands the vehicle to fly to (lat, lon, alt) and hold there.
// The previous setpoint may no longer be loitered at, so an interrupted
// return-to-launch sequence restarts from scratch next time.
func (n *Navigator) Reposition(lat, lon, alt float64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.reposition.target = domain.PositionSetpoint{Lat: lat, Lon: lon, Alt: alt}
	n.state.canLoiter = false
	n.mode = domain.ModeReposition
	// Force a fresh activation even if already repositioning.
	n.prevMode = ""
	n.logger.Info("reposition commanded", "lat", lat, "lon", lon, "alt", alt)
}

// UpdateVehicle feeds the latest vehicle estimate into the navigator.
func (n *Navigator) UpdateVehicle(pos domain.GlobalPosition, landed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.position = pos
	n.state.landed = landed
}

// SetHome moves the launch point.
func (n *Navigator) SetHome(home domain.HomePosition) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.home = home
}

// Mode returns the selected navigation mode.
func (n *Navigator) Mode() domain.NavMode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mode
}

// Phase returns the current return-to-launch phase.
func (n *Navigator) Phase() domain.Phase {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rtl.Phase()
}

// Triplet returns a copy of the outstanding setpoints.
func (n *Navigator) Triplet() domain.SetpointTriplet {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked("").Triplet
}

// Snapshot captures the full guidance state for persistence or display.
func (n *Navigator) Snapshot(vehicleID string) *domain.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked(vehicleID)
}

func (n *Navigator) snapshotLocked(vehicleID string) *domain.Snapshot {
	snap := domain.NewSnapshot(vehicleID)
	snap.Mode = n.mode
	snap.Triplet = n.state.triplet
	snap.CanLoiterAtSetpoint = n.state.canLoiter
	snap.Position = n.state.position
	snap.Home = n.state.home
	snap.Landed = n.state.landed
	snap.UpdatedAt = n.now()
	n.rtl.Snapshot(snap)
	// Clone detaches the yaw pointers from live state.
	return snap.Clone()
}

// Restore reinstates a persisted snapshot. The restored mode is re-activated
// on the next Step, and a return-to-launch sequence resumes from its phase.
func (n *Navigator) Restore(snap *domain.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := snap.Clone()
	n.mode = s.Mode
	if _, ok := n.phases[n.mode]; !ok {
		n.mode = domain.ModeHold
	}
	n.prevMode = ""
	n.state.triplet = s.Triplet
	n.state.canLoiter = s.CanLoiterAtSetpoint
	n.state.position = s.Position
	n.state.home = s.Home
	n.state.landed = s.Landed
	n.rtl.Restore(s)
	n.logger.Info("navigator restored", "vehicle", s.VehicleID, "mode", n.mode, "phase", s.Phase)
}
