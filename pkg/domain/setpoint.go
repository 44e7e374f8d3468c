package domain

// SetpointType tells the position controller which behavior to apply to a setpoint.
type SetpointType string

const (
	SetpointPosition SetpointType = "position"
	SetpointLoiter   SetpointType = "loiter"
	SetpointTakeoff  SetpointType = "takeoff"
	SetpointLand     SetpointType = "land"
	SetpointIdle     SetpointType = "idle"
)

// PositionSetpoint is the downstream representation of a mission item.
type PositionSetpoint struct {
	Valid bool         `json:"valid"`
	Type  SetpointType `json:"type,omitempty"`

	Lat float64  `json:"lat"`
	Lon float64  `json:"lon"`
	Alt float64  `json:"alt"` // Absolute altitude
	Yaw *float64 `json:"yaw"`

	LoiterRadius     float64 `json:"loiter_radius"`
	LoiterDirection  int     `json:"loiter_direction"`
	AcceptanceRadius float64 `json:"acceptance_radius"`
	PitchMin         float64 `json:"pitch_min"`
}

// SetpointTriplet holds the outstanding setpoints of the navigator.
// Only Current is consumed for tracking; Previous gives path continuity and
// Next is a single-target lookahead.
type SetpointTriplet struct {
	Previous PositionSetpoint `json:"previous"`
	Current  PositionSetpoint `json:"current"`
	Next     PositionSetpoint `json:"next"`
}
