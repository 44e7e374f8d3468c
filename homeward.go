package homeward

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/homeward/internal/navigator"
	"github.com/aretw0/homeward/internal/params"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
)

// Engine is the high-level entry point for the homeward library.
// It wraps the navigator and its parameter store behind a small API for
// hosts that bring their own vehicle estimate and autopilot.
type Engine struct {
	nav    *navigator.Navigator
	params *params.Store

	cfg      navigator.Config
	values   map[string]float64
	hooks    domain.LifecycleHooks
	advisory ports.AdvisorySink
	logger   *slog.Logger
	now      func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithAdvisorySink receives operator advisories. By default they are logged.
func WithAdvisorySink(sink ports.AdvisorySink) Option {
	return func(e *Engine) {
		e.advisory = sink
	}
}

// WithClock sets the time source used for the land delay.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithParam overrides one tunable, e.g. WithParam("RTL_LAND_DELAY", 0).
func WithParam(key string, value float64) Option {
	return func(e *Engine) {
		e.values[key] = value
	}
}

// WithRadii sets the loiter and acceptance radii in meters.
func WithRadii(loiter, acceptance float64) Option {
	return func(e *Engine) {
		e.cfg.LoiterRadius = loiter
		e.cfg.AcceptanceRadius = acceptance
	}
}

// New creates an engine for a vehicle launched from home. The engine starts
// landed at home in hold mode.
func New(home domain.HomePosition, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    navigator.Config{Home: home},
		values: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	e.params = params.NewStore()
	for key, v := range e.values {
		if err := e.params.Set(key, v); err != nil {
			return nil, fmt.Errorf("invalid parameter: %w", err)
		}
	}

	navOpts := []navigator.Option{
		navigator.WithLogger(e.logger),
		navigator.WithLifecycleHooks(e.hooks),
	}
	if e.advisory != nil {
		navOpts = append(navOpts, navigator.WithAdvisorySink(e.advisory))
	}
	if e.now != nil {
		navOpts = append(navOpts, navigator.WithClock(e.now))
	}
	e.nav = navigator.New(e.cfg, e.params, navOpts...)
	return e, nil
}

// Update feeds the latest position estimate and landed flag.
func (e *Engine) Update(pos domain.GlobalPosition, landed bool) {
	e.nav.UpdateVehicle(pos, landed)
}

// SetMode selects the navigation mode from the next Step on.
func (e *Engine) SetMode(mode domain.NavMode) error {
	return e.nav.SetMode(mode)
}

// Reposition commands a fly-to-and-hold.
func (e *Engine) Reposition(lat, lon, alt float64) {
	e.nav.Reposition(lat, lon, alt)
}

// Step runs one guidance cycle. It returns the outstanding setpoints and
// whether they changed.
func (e *Engine) Step() (domain.SetpointTriplet, bool) {
	updated := e.nav.Step()
	return e.nav.Triplet(), updated
}

// Phase returns the current return-to-launch phase.
func (e *Engine) Phase() domain.Phase {
	return e.nav.Phase()
}

// SetParam changes a tunable at runtime. It takes effect on the next target.
func (e *Engine) SetParam(key string, value float64) error {
	return e.params.Set(key, value)
}

// Snapshot captures the guidance state under vehicleID.
func (e *Engine) Snapshot(vehicleID string) *domain.Snapshot {
	return e.nav.Snapshot(vehicleID)
}

// Restore reinstates a snapshot taken earlier.
func (e *Engine) Restore(snap *domain.Snapshot) {
	e.nav.Restore(snap)
}
