package rtl

import (
	"log/slog"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
)

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets the structured logger used for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithAdvisorySink routes operator advisories to sink.
func WithAdvisorySink(sink ports.AdvisorySink) Option {
	return func(c *Controller) {
		c.advisories = sink
	}
}

// WithClock overrides the time source used for loiter timing.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}
