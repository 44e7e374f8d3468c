package runner

import (
	"sync"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
)

// TracePoint is one recorded cycle.
type TracePoint struct {
	Time     time.Time             `json:"time"`
	Mode     domain.NavMode        `json:"mode"`
	Phase    domain.Phase          `json:"phase"`
	Position domain.GlobalPosition `json:"position"`
	Landed   bool                  `json:"landed"`
}

// Trace records the flown path. Every Nth cycle is kept, plus every
// cycle where the phase changes.
type Trace struct {
	mu     sync.Mutex
	every  int
	count  int
	points []TracePoint
}

// NewTrace creates a trace keeping one point out of every cycles.
func NewTrace(every int) *Trace {
	if every < 1 {
		every = 1
	}
	return &Trace{every: every}
}

// Record adds a cycle to the trace.
func (t *Trace) Record(now time.Time, s *domain.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	phaseChanged := len(t.points) == 0 || t.points[len(t.points)-1].Phase != s.Phase
	keep := t.count%t.every == 0 || phaseChanged
	t.count++
	if !keep {
		return
	}
	t.points = append(t.points, TracePoint{
		Time:     now,
		Mode:     s.Mode,
		Phase:    s.Phase,
		Position: s.Position,
		Landed:   s.Landed,
	})
}

// Points returns a copy of the recorded points.
func (t *Trace) Points() []TracePoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TracePoint(nil), t.points...)
}

// PhaseDurations sums the time spent in each phase.
func (t *Trace) PhaseDurations() map[domain.Phase]time.Duration {
	points := t.Points()
	out := make(map[domain.Phase]time.Duration)
	for i := 1; i < len(points); i++ {
		out[points[i-1].Phase] += points[i].Time.Sub(points[i-1].Time)
	}
	return out
}
