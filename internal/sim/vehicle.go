// Package sim provides a point-mass multicopter that tracks position setpoints.
// It is good enough to exercise guidance end to end, not to tune controllers.
package sim

import (
	"math"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/geo"
)

// landedTolerance is the height above the land target at which touchdown is declared.
const landedTolerance = 0.1

// Config describes the vehicle's performance limits.
type Config struct {
	CruiseSpeed float64 `yaml:"cruise_speed" json:"cruise_speed"` // m/s
	ClimbRate   float64 `yaml:"climb_rate" json:"climb_rate"`     // m/s
	DescentRate float64 `yaml:"descent_rate" json:"descent_rate"` // m/s
	LandSpeed   float64 `yaml:"land_speed" json:"land_speed"`     // m/s
	YawRate     float64 `yaml:"yaw_rate" json:"yaw_rate"`         // rad/s
}

// DefaultConfig returns limits typical of a small quadcopter.
func DefaultConfig() Config {
	return Config{
		CruiseSpeed: 12,
		ClimbRate:   3,
		DescentRate: 2,
		LandSpeed:   0.7,
		YawRate:     math.Pi / 2,
	}
}

// Vehicle is a simulated airframe. It is not safe for concurrent use.
type Vehicle struct {
	cfg    Config
	pos    domain.GlobalPosition
	landed bool
}

// NewVehicle creates a vehicle at start.
func NewVehicle(cfg Config, start domain.GlobalPosition, landed bool) *Vehicle {
	def := DefaultConfig()
	if cfg.CruiseSpeed <= 0 {
		cfg.CruiseSpeed = def.CruiseSpeed
	}
	if cfg.ClimbRate <= 0 {
		cfg.ClimbRate = def.ClimbRate
	}
	if cfg.DescentRate <= 0 {
		cfg.DescentRate = def.DescentRate
	}
	if cfg.LandSpeed <= 0 {
		cfg.LandSpeed = def.LandSpeed
	}
	if cfg.YawRate <= 0 {
		cfg.YawRate = def.YawRate
	}
	return &Vehicle{cfg: cfg, pos: start, landed: landed}
}

// Position returns the current estimate.
func (v *Vehicle) Position() domain.GlobalPosition {
	return v.pos
}

// Landed reports whether the vehicle is on the ground.
func (v *Vehicle) Landed() bool {
	return v.landed
}

// Step advances the vehicle by dt toward sp.
func (v *Vehicle) Step(dt time.Duration, sp domain.PositionSetpoint) {
	if !sp.Valid || sp.Type == domain.SetpointIdle {
		return
	}
	secs := dt.Seconds()

	if v.landed {
		if sp.Type == domain.SetpointLand || sp.Alt <= v.pos.Alt+landedTolerance {
			return
		}
		v.landed = false
	}

	dist := geo.Distance(v.pos.Lat, v.pos.Lon, sp.Lat, sp.Lon)
	if dist > 0 {
		bearing := geo.Bearing(v.pos.Lat, v.pos.Lon, sp.Lat, sp.Lon)
		move := math.Min(dist, v.cfg.CruiseSpeed*secs)
		if move >= dist {
			v.pos.Lat, v.pos.Lon = sp.Lat, sp.Lon
		} else {
			v.pos.Lat, v.pos.Lon = geo.Destination(v.pos.Lat, v.pos.Lon, bearing, move)
		}
	}

	// Land vertically once over the target.
	if sp.Type == domain.SetpointLand && dist > sp.AcceptanceRadius {
		v.slewYaw(sp, secs)
		return
	}

	dAlt := sp.Alt - v.pos.Alt
	switch {
	case dAlt > 0:
		v.pos.Alt += math.Min(dAlt, v.cfg.ClimbRate*secs)
	case dAlt < 0:
		rate := v.cfg.DescentRate
		if sp.Type == domain.SetpointLand {
			rate = v.cfg.LandSpeed
		}
		v.pos.Alt -= math.Min(-dAlt, rate*secs)
	}

	if sp.Type == domain.SetpointLand && v.pos.Alt-sp.Alt <= landedTolerance {
		v.pos.Alt = sp.Alt
		v.landed = true
	}

	v.slewYaw(sp, secs)
}

func (v *Vehicle) slewYaw(sp domain.PositionSetpoint, secs float64) {
	if sp.Yaw == nil {
		return
	}
	diff := geo.WrapPi(*sp.Yaw - v.pos.Yaw)
	maxStep := v.cfg.YawRate * secs
	if math.Abs(diff) <= maxStep {
		v.pos.Yaw = *sp.Yaw
		return
	}
	v.pos.Yaw = geo.WrapPi(v.pos.Yaw + math.Copysign(maxStep, diff))
}
