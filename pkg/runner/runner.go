package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/homeward/internal/navigator"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
)

// DefaultRate is the guidance cycle period used when none is configured.
const DefaultRate = 100 * time.Millisecond

// ErrMaxDuration is returned when a run exceeds its configured duration.
var ErrMaxDuration = errors.New("run exceeded maximum duration")

// Vehicle is the airframe the runner flies: it tracks a setpoint and reports
// its position estimate back to guidance.
type Vehicle interface {
	Step(dt time.Duration, sp domain.PositionSetpoint)
	Position() domain.GlobalPosition
	Landed() bool
}

// StopCondition decides, after every cycle, whether the run is complete.
type StopCondition func(*domain.Snapshot) bool

// StopWhenLanded ends the run once a return-to-launch sequence has landed,
// or has settled into an unlimited loiter over home (negative land delay).
func StopWhenLanded(s *domain.Snapshot) bool {
	if s.Mode != domain.ModeRTL {
		return false
	}
	if s.Phase == domain.PhaseLanded {
		return true
	}
	return s.Phase == domain.PhaseLoiter && s.Item.NavCmd == domain.NavCmdLoiterUnlimited
}

// Tick summarizes one guidance cycle for observers.
type Tick struct {
	Seq            uint64
	Time           time.Time
	Elapsed        time.Duration
	TripletUpdated bool
	Snapshot       *domain.Snapshot
}

// Runner drives the guidance loop of one vehicle: it feeds the vehicle
// estimate into the navigator, runs a cycle and hands the new setpoint back
// to the vehicle, at a fixed rate.
type Runner struct {
	Navigator *navigator.Navigator
	Vehicle   Vehicle

	// Handler receives phase changes and new targets. If nil, events are dropped.
	Handler EventHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Store is the persistence adapter for resumable sessions.
	// If nil, sessions are ephemeral.
	Store     ports.SnapshotStore
	VehicleID string

	// Rate is the cycle period.
	Rate time.Duration
	// Clock supplies time. A VirtualClock makes the run go as fast as the CPU allows.
	Clock Clock
	// MaxDuration bounds the run in guidance time; zero means unbounded.
	MaxDuration time.Duration
	// StopWhen ends the run; defaults to StopWhenLanded.
	StopWhen StopCondition

	Trace     *Trace
	observers []func(Tick)
}

// NewRunner creates a runner for the given navigator and vehicle.
func NewRunner(nav *navigator.Navigator, vehicle Vehicle, opts ...Option) *Runner {
	r := &Runner{
		Navigator: nav,
		Vehicle:   vehicle,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Rate:      DefaultRate,
		Clock:     RealClock{},
		StopWhen:  StopWhenLanded,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the guidance loop until the stop condition holds, the context
// is cancelled, or an interrupt signal arrives. A cancelled run saves its last
// snapshot and returns nil so the session can be resumed.
func (r *Runner) Run(ctx context.Context) error {
	if r.Navigator == nil || r.Vehicle == nil {
		return fmt.Errorf("runner requires a navigator and a vehicle")
	}

	signals := NewSignalManager(ctx)
	defer signals.Stop()
	runCtx := signals.Context()

	_, virtual := r.Clock.(*VirtualClock)
	var ticker *time.Ticker
	if !virtual {
		ticker = time.NewTicker(r.Rate)
		defer ticker.Stop()
	}

	start := r.Clock.Now()
	lastPhase := r.Navigator.Phase()
	lastMode := r.Navigator.Mode()
	var seq uint64

	for {
		if runCtx.Err() != nil {
			r.Logger.Info("guidance loop interrupted", "vehicle", r.VehicleID, "cause", context.Cause(runCtx))
			snap := r.Navigator.Snapshot(r.VehicleID)
			if err := r.save(context.Background(), snap); err != nil {
				return err
			}
			r.emit(context.Background(), Event{Type: EventInterrupted, Time: r.Clock.Now(), Snapshot: snap})
			return nil
		}

		// 1. Fly toward the current setpoint
		r.Vehicle.Step(r.Rate, r.Navigator.Triplet().Current)
		r.Navigator.UpdateVehicle(r.Vehicle.Position(), r.Vehicle.Landed())

		// 2. Guidance cycle
		updated := r.Navigator.Step()
		now := r.Clock.Now()
		snap := r.Navigator.Snapshot(r.VehicleID)
		seq++

		if r.Trace != nil {
			r.Trace.Record(now, snap)
		}

		if snap.Mode != lastMode || snap.Phase != lastPhase {
			r.emit(runCtx, Event{Type: EventPhaseChanged, Time: now, Snapshot: snap, From: lastPhase})
			lastMode, lastPhase = snap.Mode, snap.Phase
		}

		// 3. Commit (persistence)
		if updated {
			if err := r.save(runCtx, snap); err != nil {
				return fmt.Errorf("critical persistence error: %w", err)
			}
			r.emit(runCtx, Event{Type: EventTargetChanged, Time: now, Snapshot: snap})
		}

		elapsed := now.Sub(start)
		tick := Tick{Seq: seq, Time: now, Elapsed: elapsed, TripletUpdated: updated, Snapshot: snap}
		for _, observe := range r.observers {
			observe(tick)
		}

		if r.StopWhen != nil && r.StopWhen(snap) {
			r.emit(runCtx, Event{Type: EventCompleted, Time: now, Snapshot: snap})
			return nil
		}
		if r.MaxDuration > 0 && elapsed >= r.MaxDuration {
			return fmt.Errorf("%w: %s in phase %s", ErrMaxDuration, r.MaxDuration, snap.Phase)
		}

		// 4. Wait for the next cycle
		if virtual {
			r.Clock.(*VirtualClock).Advance(r.Rate)
			continue
		}
		select {
		case <-runCtx.Done():
		case <-ticker.C:
		}
	}
}

func (r *Runner) save(ctx context.Context, snap *domain.Snapshot) error {
	if r.Store == nil || r.VehicleID == "" {
		return nil
	}
	if err := r.Store.Save(ctx, r.VehicleID, snap); err != nil {
		return err
	}
	r.Logger.Debug("snapshot saved", "vehicle", r.VehicleID, "phase", snap.Phase)
	return nil
}

func (r *Runner) emit(ctx context.Context, evt Event) {
	if r.Handler == nil {
		return
	}
	if err := r.Handler.Handle(ctx, evt); err != nil {
		r.Logger.Warn("event handler failed", "event", evt.Type, "error", err)
	}
}
