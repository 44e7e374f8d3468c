package testutils

import (
	"sync"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
)

// FakeNav is a scriptable ports.NavigationContext for tests.
// Fields are exported so tests can move the vehicle between cycles.
type FakeNav struct {
	IsLanded   bool
	Position   domain.GlobalPosition
	Home       domain.HomePosition
	Loiter     float64
	Acceptance float64
	FixedWing  bool

	Setpoints      domain.SetpointTriplet
	TripletUpdates int
	CanLoiter      bool
}

var _ ports.NavigationContext = (*FakeNav)(nil)

// NewFakeNav returns a navigator with the launch point at (0, 0, homeAlt),
// 50 m loiter radius and 10 m acceptance radius.
func NewFakeNav(homeAlt float64) *FakeNav {
	return &FakeNav{
		Home:       domain.HomePosition{Alt: homeAlt},
		Position:   domain.GlobalPosition{Alt: homeAlt},
		Loiter:     50,
		Acceptance: 10,
	}
}

func (n *FakeNav) Landed() bool                          { return n.IsLanded }
func (n *FakeNav) GlobalPosition() domain.GlobalPosition { return n.Position }
func (n *FakeNav) HomePosition() domain.HomePosition     { return n.Home }
func (n *FakeNav) LoiterRadius() float64                 { return n.Loiter }
func (n *FakeNav) AcceptanceRadius() float64             { return n.Acceptance }
func (n *FakeNav) RotaryWing() bool                      { return !n.FixedWing }
func (n *FakeNav) Triplet() *domain.SetpointTriplet      { return &n.Setpoints }
func (n *FakeNav) SetTripletUpdated()                    { n.TripletUpdates++ }
func (n *FakeNav) CanLoiterAtSetpoint() bool             { return n.CanLoiter }
func (n *FakeNav) SetCanLoiterAtSetpoint(canLoiter bool) { n.CanLoiter = canLoiter }

// MoveToCurrentSetpoint teleports the vehicle onto the current setpoint,
// facing its yaw if one is given.
func (n *FakeNav) MoveToCurrentSetpoint() {
	sp := n.Setpoints.Current
	n.Position.Lat = sp.Lat
	n.Position.Lon = sp.Lon
	n.Position.Alt = sp.Alt
	if sp.Yaw != nil {
		n.Position.Yaw = *sp.Yaw
	}
}

// Params is a map-backed ports.ParameterStore.
type Params map[string]float64

// Float returns the value stored under key.
func (p Params) Float(key string) (float64, bool) {
	v, ok := p[key]
	return v, ok
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2014, 7, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Advisories records every advisory it receives.
type Advisories struct {
	Messages   []string
	Severities []domain.Severity
}

// Advise records the advisory.
func (a *Advisories) Advise(severity domain.Severity, message string) {
	a.Messages = append(a.Messages, message)
	a.Severities = append(a.Severities, severity)
}

// Last returns the most recent message, or "" if none.
func (a *Advisories) Last() string {
	if len(a.Messages) == 0 {
		return ""
	}
	return a.Messages[len(a.Messages)-1]
}
