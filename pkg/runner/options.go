package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/homeward/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures the SnapshotStore for persistence.
func WithStore(store ports.SnapshotStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithVehicleID sets the session ID used for persistence.
// This is required if WithStore is used.
func WithVehicleID(id string) Option {
	return func(r *Runner) {
		r.VehicleID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithHandler configures where run events are reported.
func WithHandler(handler EventHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithRate sets the guidance cycle period.
func WithRate(rate time.Duration) Option {
	return func(r *Runner) {
		if rate > 0 {
			r.Rate = rate
		}
	}
}

// WithClock sets the time source. Pass a *VirtualClock to run unthrottled.
func WithClock(clock Clock) Option {
	return func(r *Runner) {
		if clock != nil {
			r.Clock = clock
		}
	}
}

// WithMaxDuration bounds the run in guidance time.
func WithMaxDuration(d time.Duration) Option {
	return func(r *Runner) {
		r.MaxDuration = d
	}
}

// WithStopCondition replaces the default completion check.
func WithStopCondition(cond StopCondition) Option {
	return func(r *Runner) {
		r.StopWhen = cond
	}
}

// WithTrace records every cycle into trace.
func WithTrace(trace *Trace) Option {
	return func(r *Runner) {
		r.Trace = trace
	}
}

// WithTickObserver registers a callback invoked after every cycle.
// Observers run on the guidance goroutine and must not block.
func WithTickObserver(fn func(Tick)) Option {
	return func(r *Runner) {
		r.observers = append(r.observers, fn)
	}
}
