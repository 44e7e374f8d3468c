package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aretw0/homeward/pkg/domain"
)

// Styler decorates a line of output (e.g. with terminal colors).
type Styler func(string) string

// TextHandler prints a human-readable flight log.
// It also implements ports.AdvisorySink so advisories interleave with events.
type TextHandler struct {
	mu     sync.Mutex
	Writer io.Writer
	// Highlight styles phase changes and advisories. If nil, text is plain.
	Highlight Styler
}

// NewTextHandler creates a handler for standard text output.
func NewTextHandler(w io.Writer) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	return &TextHandler{Writer: w}
}

// Handle prints the event.
func (h *TextHandler) Handle(ctx context.Context, evt Event) error {
	s := evt.Snapshot
	if s == nil {
		return nil
	}
	ts := evt.Time.Format("15:04:05.0")

	var line string
	switch evt.Type {
	case EventPhaseChanged:
		line = h.style(fmt.Sprintf("%s  mode=%s phase %s -> %s", ts, s.Mode, evt.From, s.Phase))
	case EventTargetChanged:
		cur := s.Triplet.Current
		line = fmt.Sprintf("%s  target %.6f, %.6f alt %.1f m (%s)", ts, cur.Lat, cur.Lon, cur.Alt, cur.Type)
	case EventCompleted:
		line = h.style(fmt.Sprintf("%s  completed: %s at %.6f, %.6f", ts, s.Phase, s.Position.Lat, s.Position.Lon))
	case EventInterrupted:
		line = h.style(fmt.Sprintf("%s  interrupted in %s, session saved", ts, s.Phase))
	default:
		return nil
	}
	return h.println(line)
}

// Advise prints an operator advisory.
func (h *TextHandler) Advise(severity domain.Severity, message string) {
	_ = h.println(h.style(fmt.Sprintf("[%s] %s", severity, message)))
}

func (h *TextHandler) style(s string) string {
	if h.Highlight == nil {
		return s
	}
	return h.Highlight(s)
}

func (h *TextHandler) println(s string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.Writer, s)
	return err
}
