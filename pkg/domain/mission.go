package domain

// NavCmd selects how the position controller treats a mission item.
type NavCmd string

const (
	NavCmdWaypoint        NavCmd = "waypoint"          // Fly to the position and continue
	NavCmdLoiterTimeLimit NavCmd = "loiter_time_limit" // Hold for TimeInside seconds
	NavCmdLoiterUnlimited NavCmd = "loiter_unlimited"  // Hold until superseded
	NavCmdLand            NavCmd = "land"              // Land at the position
	NavCmdIdle            NavCmd = "idle"              // Stay put, motors idle
)

// Origin tags who produced a mission item.
type Origin string

const (
	OriginOnboard Origin = "onboard"
	OriginMavlink Origin = "mavlink"
)

// MissionItem is a single navigation target.
type MissionItem struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`

	// Altitude is absolute (AMSL) unless AltitudeIsRelative is set.
	Altitude           float64 `json:"altitude" yaml:"altitude"`
	AltitudeIsRelative bool    `json:"altitude_is_relative,omitempty" yaml:"altitude_is_relative,omitempty"`

	// Yaw in radians. Nil means unspecified: the controller keeps its own heading.
	Yaw *float64 `json:"yaw" yaml:"yaw"`

	LoiterRadius    float64 `json:"loiter_radius" yaml:"loiter_radius"`
	LoiterDirection int     `json:"loiter_direction" yaml:"loiter_direction"`

	NavCmd           NavCmd  `json:"nav_cmd" yaml:"nav_cmd"`
	AcceptanceRadius float64 `json:"acceptance_radius" yaml:"acceptance_radius"`

	// TimeInside is the time in seconds the vehicle must stay inside the
	// acceptance radius before the item counts as reached.
	TimeInside   float64 `json:"time_inside" yaml:"time_inside"`
	PitchMin     float64 `json:"pitch_min" yaml:"pitch_min"`
	Autocontinue bool    `json:"autocontinue" yaml:"autocontinue"`
	Origin       Origin  `json:"origin" yaml:"origin"`
}

// Yaw returns a pointer to v, for filling optional yaw fields.
func Yaw(v float64) *float64 {
	return &v
}

// HasYaw reports whether the item specifies a heading.
func (m MissionItem) HasYaw() bool {
	return m.Yaw != nil
}
