// Package mission holds the behavior shared by every flight phase that
// produces mission items: reached detection, setpoint conversion and the
// standard land and idle targets.
package mission

import (
	"math"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/geo"
	"github.com/aretw0/homeward/pkg/ports"
)

// YawAcceptance is the heading error (radians) under which a specified yaw counts as reached.
const YawAcceptance = 0.2

// Block tracks whether the current mission item has been reached.
// It is not safe for concurrent use; a guidance cycle owns it.
type Block struct {
	nav ports.NavigationContext
	now func() time.Time

	reached         bool
	positionReached bool
	yawReached      bool
	firstInside     time.Time
}

// NewBlock creates a block bound to a navigation context.
// If now is nil, time.Now is used.
func NewBlock(nav ports.NavigationContext, now func() time.Time) *Block {
	if now == nil {
		now = time.Now
	}
	return &Block{nav: nav, now: now}
}

// Navigator returns the bound navigation context.
func (b *Block) Navigator() ports.NavigationContext {
	return b.nav
}

// IsReached reports whether the vehicle has reached item: inside the
// acceptance radius, facing the requested yaw (rotary-wing only), for at
// least TimeInside seconds. Once reached, the result latches until Reset.
func (b *Block) IsReached(item domain.MissionItem) bool {
	switch item.NavCmd {
	case domain.NavCmdLand:
		return b.nav.Landed()
	case domain.NavCmdIdle, domain.NavCmdLoiterUnlimited:
		return false
	}

	if b.reached {
		return true
	}

	pos := b.nav.GlobalPosition()

	if !b.positionReached {
		alt := absoluteAltitude(item, b.nav.HomePosition())
		dist := geo.Distance3D(pos.Lat, pos.Lon, pos.Alt, item.Lat, item.Lon, alt)
		if dist <= item.AcceptanceRadius {
			b.positionReached = true
		}
	}

	if b.positionReached && !b.yawReached {
		if item.Yaw == nil || !b.nav.RotaryWing() || math.Abs(geo.WrapPi(*item.Yaw-pos.Yaw)) < YawAcceptance {
			b.yawReached = true
		}
	}

	if b.positionReached && b.yawReached {
		now := b.now()
		if b.firstInside.IsZero() {
			b.firstInside = now
		}
		if now.Sub(b.firstInside).Seconds() >= item.TimeInside {
			b.reached = true
		}
	}

	return b.reached
}

// Reset clears the reached latch for a new item.
func (b *Block) Reset() {
	b.reached = false
	b.positionReached = false
	b.yawReached = false
	b.firstInside = time.Time{}
}

// SetPreviousSetpoint copies the current setpoint into the previous slot.
func (b *Block) SetPreviousSetpoint() {
	triplet := b.nav.Triplet()
	triplet.Previous = triplet.Current
}

// ToPositionSetpoint converts a mission item into a valid position setpoint.
func ToPositionSetpoint(item domain.MissionItem, home domain.HomePosition) domain.PositionSetpoint {
	sp := domain.PositionSetpoint{
		Valid:            true,
		Lat:              item.Lat,
		Lon:              item.Lon,
		Alt:              absoluteAltitude(item, home),
		LoiterRadius:     item.LoiterRadius,
		LoiterDirection:  item.LoiterDirection,
		AcceptanceRadius: item.AcceptanceRadius,
		PitchMin:         item.PitchMin,
	}
	if item.Yaw != nil {
		sp.Yaw = domain.Yaw(*item.Yaw)
	}

	switch item.NavCmd {
	case domain.NavCmdLand:
		sp.Type = domain.SetpointLand
	case domain.NavCmdIdle:
		sp.Type = domain.SetpointIdle
	case domain.NavCmdLoiterTimeLimit, domain.NavCmdLoiterUnlimited:
		sp.Type = domain.SetpointLoiter
	default:
		sp.Type = domain.SetpointPosition
	}
	return sp
}

// LandItem returns a landing target at home, or at the current location
// when atCurrentLocation is set.
func LandItem(nav ports.NavigationContext, atCurrentLocation bool) domain.MissionItem {
	home := nav.HomePosition()
	item := onboardItem(nav, domain.NavCmdLand)
	if atCurrentLocation {
		pos := nav.GlobalPosition()
		item.Lat, item.Lon = pos.Lat, pos.Lon
	} else {
		item.Lat, item.Lon = home.Lat, home.Lon
	}
	item.Altitude = home.Alt
	return item
}

// IdleItem returns a stationary idle target at home.
func IdleItem(nav ports.NavigationContext) domain.MissionItem {
	home := nav.HomePosition()
	item := onboardItem(nav, domain.NavCmdIdle)
	item.Lat, item.Lon = home.Lat, home.Lon
	item.Altitude = home.Alt
	return item
}

func onboardItem(nav ports.NavigationContext, cmd domain.NavCmd) domain.MissionItem {
	return domain.MissionItem{
		NavCmd:           cmd,
		LoiterRadius:     nav.LoiterRadius(),
		LoiterDirection:  1,
		AcceptanceRadius: nav.AcceptanceRadius(),
		Autocontinue:     true,
		Origin:           domain.OriginOnboard,
	}
}

func absoluteAltitude(item domain.MissionItem, home domain.HomePosition) float64 {
	if item.AltitudeIsRelative {
		return item.Altitude + home.Alt
	}
	return item.Altitude
}
