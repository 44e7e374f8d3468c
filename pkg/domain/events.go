package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventPhaseEnter    EventType = "phase_enter"
	EventPhaseLeave    EventType = "phase_leave"
	EventTargetChanged EventType = "target_changed"
	EventAdvisory      EventType = "advisory"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// PhaseEvent represents entry into or exit from a phase.
type PhaseEvent struct {
	EventBase
	Phase Phase `json:"phase"`
	From  Phase `json:"from"`
}

// TargetEvent is emitted every time a new mission item becomes current.
type TargetEvent struct {
	EventBase
	Phase Phase       `json:"phase"`
	Item  MissionItem `json:"item"`
}

// AdvisoryEvent wraps an advisory emitted by the controller.
type AdvisoryEvent struct {
	EventBase
	Advisory Advisory `json:"advisory"`
}

// LifecycleHooks defines callbacks for controller observability.
// Hooks run synchronously inside the guidance cycle and must not block.
type LifecycleHooks struct {
	OnPhaseEnter    func(*PhaseEvent)
	OnPhaseLeave    func(*PhaseEvent)
	OnTargetChanged func(*TargetEvent)
	OnAdvisory      func(*AdvisoryEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPhaseEnter:    chain(h.OnPhaseEnter, other.OnPhaseEnter),
		OnPhaseLeave:    chain(h.OnPhaseLeave, other.OnPhaseLeave),
		OnTargetChanged: chain(h.OnTargetChanged, other.OnTargetChanged),
		OnAdvisory:      chain(h.OnAdvisory, other.OnAdvisory),
	}
}

func chain[E any](a, b func(E)) func(E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e E) {
		a(e)
		b(e)
	}
}
