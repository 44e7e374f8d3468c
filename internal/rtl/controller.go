// Package rtl implements the return-to-launch phase controller: climb to a
// safe altitude, fly home, descend, optionally loiter, then land.
package rtl

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/homeward/internal/mission"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/geo"
	"github.com/aretw0/homeward/pkg/ports"
)

// delaySigma is the band around zero in which a land delay means "land now".
const delaySigma = 0.01

// Controller is the return-to-launch state machine.
// The host calls OnInactive, OnActivation and OnActive from a single guidance
// loop; none of them block and none of them fail.
type Controller struct {
	nav        ports.NavigationContext
	params     ports.ParameterStore
	advisories ports.AdvisorySink
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time
	block      *mission.Block

	phase     domain.Phase
	startLock bool
	item      domain.MissionItem
	history   []domain.Phase

	returnAlt  float64
	descendAlt float64
	landDelay  float64
}

// New creates a controller bound to a navigation context and a parameter store.
// Parameters are loaded immediately and the controller starts idle.
func New(nav ports.NavigationContext, params ports.ParameterStore, opts ...Option) *Controller {
	c := &Controller{
		nav:        nav,
		params:     params,
		advisories: ports.AdvisoryFunc(func(domain.Severity, string) {}),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		returnAlt:  ports.DefaultReturnAltitude,
		descendAlt: ports.DefaultDescendAltitude,
		landDelay:  ports.DefaultLandDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.block = mission.NewBlock(nav, c.now)

	c.updateParams()
	c.OnInactive()
	return c
}

// Phase returns the current phase.
func (c *Controller) Phase() domain.Phase {
	return c.phase
}

// StartLocked reports whether the return baseline has been frozen.
func (c *Controller) StartLocked() bool {
	return c.startLock
}

// Item returns the outstanding mission item.
func (c *Controller) Item() domain.MissionItem {
	item := c.item
	if c.item.Yaw != nil {
		item.Yaw = domain.Yaw(*c.item.Yaw)
	}
	return item
}

// History returns the phases entered since the last reset.
func (c *Controller) History() []domain.Phase {
	return append([]domain.Phase(nil), c.history...)
}

// Snapshot copies the controller state into s.
func (c *Controller) Snapshot(s *domain.Snapshot) {
	s.Phase = c.phase
	s.StartLock = c.startLock
	s.Item = c.item
	if c.item.Yaw != nil {
		s.Item.Yaw = domain.Yaw(*c.item.Yaw)
	}
	s.History = c.History()
}

// Restore reinstates a persisted phase, baseline lock and item without
// emitting hooks. The next OnActivation resumes from the restored phase.
func (c *Controller) Restore(snapshot *domain.Snapshot) {
	c.phase = snapshot.Phase
	c.startLock = snapshot.StartLock
	c.item = snapshot.Item
	c.history = append([]domain.Phase(nil), snapshot.History...)
	c.block.Reset()
}

// OnInactive is called every cycle RTL is not the selected phase.
// The sequence is forgotten only if something has moved the setpoint.
func (c *Controller) OnInactive() {
	if !c.nav.CanLoiterAtSetpoint() {
		c.setPhase(domain.PhaseNone)
		c.history = c.history[:0]
	}
}

// OnActivation is called once when RTL becomes the selected phase.
func (c *Controller) OnActivation() {
	if c.phase == domain.PhaseNone {
		c.updateParams()
		pos := c.nav.GlobalPosition()
		home := c.nav.HomePosition()

		switch {
		case c.nav.Landed():
			// Never take off again just to come home.
			c.setPhase(domain.PhaseLanded)
			c.advise(domain.SeverityCritical, "no RTL when landed")

		case pos.Alt < home.Alt+c.returnAlt:
			c.setPhase(domain.PhaseClimb)
			c.startLock = false

		default:
			// High enough already: return at the current altitude.
			c.setPhase(domain.PhaseReturn)
			c.item.AltitudeIsRelative = false
			c.item.Altitude = pos.Alt
			c.startLock = false
		}
	}

	c.computeTarget()
}

// OnActive is called every cycle after activation while RTL stays selected.
func (c *Controller) OnActive() {
	if c.phase != domain.PhaseLanded && c.block.IsReached(c.item) {
		c.advance()
		c.computeTarget()
	}
}

// computeTarget builds the mission item for the current phase and publishes
// it as the current setpoint.
func (c *Controller) computeTarget() {
	c.updateParams()

	if !c.startLock {
		c.block.SetPreviousSetpoint()
	}

	c.nav.SetCanLoiterAtSetpoint(false)

	home := c.nav.HomePosition()
	pos := c.nav.GlobalPosition()
	triplet := c.nav.Triplet()

	switch c.phase {
	case domain.PhaseClimb:
		climbAlt := home.Alt + c.returnAlt

		c.item.Lat = pos.Lat
		c.item.Lon = pos.Lon
		c.item.AltitudeIsRelative = false
		c.item.Altitude = climbAlt
		c.item.Yaw = nil
		c.setWaypointDefaults(domain.NavCmdWaypoint, true)

		c.advise(domain.SeverityCritical, "RTL: climb to %d m (%d m above home)",
			int(climbAlt), int(climbAlt-home.Alt))

	case domain.PhaseReturn:
		c.item.Lat = home.Lat
		c.item.Lon = home.Lon
		// Altitude is kept from the climb or from the entry decision.

		from := triplet.Previous
		if !from.Valid {
			from = domain.PositionSetpoint{Lat: pos.Lat, Lon: pos.Lon}
		}
		c.item.Yaw = domain.Yaw(geo.Bearing(from.Lat, from.Lon, c.item.Lat, c.item.Lon))
		c.setWaypointDefaults(domain.NavCmdWaypoint, true)

		c.advise(domain.SeverityCritical, "RTL: return at %d m (%d m above home)",
			int(c.item.Altitude), int(c.item.Altitude-home.Alt))

		c.startLock = true

	case domain.PhaseDescend:
		c.setHomeHold(home)
		c.setWaypointDefaults(domain.NavCmdLoiterTimeLimit, false)

		c.advise(domain.SeverityCritical, "RTL: descend to %d m (%d m above home)",
			int(c.item.Altitude), int(c.item.Altitude-home.Alt))

	case domain.PhaseLoiter:
		autoland := c.landDelay > -delaySigma

		c.setHomeHold(home)
		if autoland {
			c.setWaypointDefaults(domain.NavCmdLoiterTimeLimit, true)
		} else {
			c.setWaypointDefaults(domain.NavCmdLoiterUnlimited, false)
		}
		c.item.TimeInside = max(0, c.landDelay)

		c.nav.SetCanLoiterAtSetpoint(true)

		if autoland {
			c.advise(domain.SeverityCritical, "RTL: loiter %.1fs", c.item.TimeInside)
		} else {
			c.advise(domain.SeverityCritical, "RTL: completed, loiter")
		}

	case domain.PhaseLand:
		c.item = mission.LandItem(c.nav, false)
		c.advise(domain.SeverityCritical, "RTL: land at home")

	case domain.PhaseLanded:
		c.item = mission.IdleItem(c.nav)
		c.advise(domain.SeverityCritical, "RTL: completed, landed")
	}

	c.block.Reset()

	triplet.Current = mission.ToPositionSetpoint(c.item, home)
	triplet.Next.Valid = false
	c.nav.SetTripletUpdated()

	if c.hooks.OnTargetChanged != nil {
		c.hooks.OnTargetChanged(&domain.TargetEvent{
			EventBase: domain.EventBase{Timestamp: c.now(), Type: domain.EventTargetChanged},
			Phase:     c.phase,
			Item:      c.item,
		})
	}
}

// advance moves to the next phase of the sequence.
func (c *Controller) advance() {
	switch c.phase {
	case domain.PhaseClimb:
		c.setPhase(domain.PhaseReturn)

	case domain.PhaseReturn:
		c.setPhase(domain.PhaseDescend)

	case domain.PhaseDescend:
		// Loiter for a positive delay or forever for a negative one; land
		// straight away only when the delay is zero.
		if c.landDelay < -delaySigma || c.landDelay > delaySigma {
			c.setPhase(domain.PhaseLoiter)
		} else {
			c.setPhase(domain.PhaseLand)
		}

	case domain.PhaseLoiter:
		c.setPhase(domain.PhaseLand)

	case domain.PhaseLand:
		c.setPhase(domain.PhaseLanded)
	}
}

func (c *Controller) setHomeHold(home domain.HomePosition) {
	c.item.Lat = home.Lat
	c.item.Lon = home.Lon
	c.item.AltitudeIsRelative = false
	c.item.Altitude = home.Alt + c.descendAlt
	c.item.Yaw = domain.Yaw(home.Yaw)
}

func (c *Controller) setWaypointDefaults(cmd domain.NavCmd, autocontinue bool) {
	c.item.LoiterRadius = c.nav.LoiterRadius()
	c.item.LoiterDirection = 1
	c.item.NavCmd = cmd
	c.item.AcceptanceRadius = c.nav.AcceptanceRadius()
	c.item.TimeInside = 0
	c.item.PitchMin = 0
	c.item.Autocontinue = autocontinue
	c.item.Origin = domain.OriginOnboard
}

// updateParams re-reads the tunables; a missing key keeps its last value.
func (c *Controller) updateParams() {
	c.returnAlt = c.param(ports.ParamReturnAltitude, c.returnAlt)
	c.descendAlt = c.param(ports.ParamDescendAltitude, c.descendAlt)
	c.landDelay = c.param(ports.ParamLandDelay, c.landDelay)
}

func (c *Controller) param(key string, fallback float64) float64 {
	if c.params == nil {
		return fallback
	}
	v, ok := c.params.Float(key)
	if !ok {
		c.logger.Debug("parameter missing, keeping last value", "key", key, "value", fallback)
		return fallback
	}
	return v
}

func (c *Controller) setPhase(next domain.Phase) {
	prev := c.phase
	if prev == next {
		return
	}
	c.phase = next
	if next != domain.PhaseNone {
		c.history = append(c.history, next)
	}

	c.logger.Debug("rtl phase changed", "from", prev, "to", next)

	ts := c.now()
	if c.hooks.OnPhaseLeave != nil {
		c.hooks.OnPhaseLeave(&domain.PhaseEvent{
			EventBase: domain.EventBase{Timestamp: ts, Type: domain.EventPhaseLeave},
			Phase:     prev,
			From:      prev,
		})
	}
	if c.hooks.OnPhaseEnter != nil {
		c.hooks.OnPhaseEnter(&domain.PhaseEvent{
			EventBase: domain.EventBase{Timestamp: ts, Type: domain.EventPhaseEnter},
			Phase:     next,
			From:      prev,
		})
	}
}

func (c *Controller) advise(severity domain.Severity, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.advisories.Advise(severity, msg)
	if c.hooks.OnAdvisory != nil {
		c.hooks.OnAdvisory(&domain.AdvisoryEvent{
			EventBase: domain.EventBase{Timestamp: c.now(), Type: domain.EventAdvisory},
			Advisory:  domain.Advisory{Timestamp: c.now(), Severity: severity, Message: msg},
		})
	}
}
