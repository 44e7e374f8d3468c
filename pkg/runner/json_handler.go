package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
)

// JSONHandler writes events as JSON Lines for machine consumers.
type JSONHandler struct {
	mu      sync.Mutex
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON output.
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{Encoder: json.NewEncoder(w)}
}

type jsonEvent struct {
	Type     EventType                `json:"type"`
	Time     time.Time                `json:"time"`
	Mode     domain.NavMode           `json:"mode,omitempty"`
	Phase    domain.Phase             `json:"phase"`
	From     *domain.Phase            `json:"from,omitempty"`
	Position *domain.GlobalPosition   `json:"position,omitempty"`
	Target   *domain.PositionSetpoint `json:"target,omitempty"`
	Severity domain.Severity          `json:"severity,omitempty"`
	Message  string                   `json:"message,omitempty"`
}

// Handle encodes the event as a single line.
func (h *JSONHandler) Handle(ctx context.Context, evt Event) error {
	out := jsonEvent{Type: evt.Type, Time: evt.Time}
	if s := evt.Snapshot; s != nil {
		out.Mode = s.Mode
		out.Phase = s.Phase
		pos := s.Position
		out.Position = &pos
		if evt.Type == EventTargetChanged {
			cur := s.Triplet.Current
			out.Target = &cur
		}
	}
	if evt.Type == EventPhaseChanged {
		from := evt.From
		out.From = &from
	}
	return h.encode(out)
}

// Advise encodes an advisory line.
func (h *JSONHandler) Advise(severity domain.Severity, message string) {
	_ = h.encode(jsonEvent{Type: "advisory", Time: time.Now(), Severity: severity, Message: message})
}

func (h *JSONHandler) encode(v jsonEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(v)
}
