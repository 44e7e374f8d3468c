package runner

import (
	"context"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
)

// EventType names what happened during a run.
type EventType string

const (
	EventPhaseChanged  EventType = "phase_changed"
	EventTargetChanged EventType = "target_changed"
	EventCompleted     EventType = "completed"
	EventInterrupted   EventType = "interrupted"
)

// Event is a notable moment of a run.
type Event struct {
	Type     EventType
	Time     time.Time
	From     domain.Phase // previous phase, for EventPhaseChanged
	Snapshot *domain.Snapshot
}

// EventHandler defines the strategy for reporting a run.
// This allows switching between Text (CLI) and JSON (structured) output.
type EventHandler interface {
	Handle(ctx context.Context, evt Event) error
}

// MultiHandler fans events out to several handlers, stopping at the first error.
type MultiHandler []EventHandler

// Handle forwards evt to every handler.
func (m MultiHandler) Handle(ctx context.Context, evt Event) error {
	for _, h := range m {
		if err := h.Handle(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}
