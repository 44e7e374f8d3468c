package domain

import "time"

// Snapshot captures the guidance state of a vehicle at the end of a cycle.
// Hosts persist it to resume a session; the controller itself owns no format.
type Snapshot struct {
	VehicleID string  `json:"vehicle_id" msgpack:"vehicle_id"`
	Mode      NavMode `json:"mode" msgpack:"mode"`

	Phase     Phase       `json:"phase" msgpack:"phase"`
	StartLock bool        `json:"start_lock" msgpack:"start_lock"`
	Item      MissionItem `json:"item" msgpack:"item"`

	Triplet             SetpointTriplet `json:"triplet" msgpack:"triplet"`
	CanLoiterAtSetpoint bool            `json:"can_loiter_at_setpoint" msgpack:"can_loiter_at_setpoint"`

	Position GlobalPosition `json:"position" msgpack:"position"`
	Home     HomePosition   `json:"home" msgpack:"home"`
	Landed   bool           `json:"landed" msgpack:"landed"`

	// History is the sequence of phases entered during the current activation.
	History []Phase `json:"history" msgpack:"history"`

	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`

	// Sealed holds the encrypted snapshot when a store seals it at rest.
	// A sealed envelope keeps only the identifying fields in the clear.
	Sealed string `json:"sealed,omitempty" msgpack:"sealed,omitempty"`
}

// NewSnapshot creates an empty snapshot for a vehicle.
func NewSnapshot(vehicleID string) *Snapshot {
	return &Snapshot{
		VehicleID: vehicleID,
		Mode:      ModeHold,
		Phase:     PhaseNone,
		History:   []Phase{},
	}
}

// Clone returns a deep copy safe for mutation.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	next := *s
	next.History = append([]Phase(nil), s.History...)
	next.Item.Yaw = cloneYaw(s.Item.Yaw)
	next.Triplet.Previous.Yaw = cloneYaw(s.Triplet.Previous.Yaw)
	next.Triplet.Current.Yaw = cloneYaw(s.Triplet.Current.Yaw)
	next.Triplet.Next.Yaw = cloneYaw(s.Triplet.Next.Yaw)
	return &next
}

func cloneYaw(y *float64) *float64 {
	if y == nil {
		return nil
	}
	v := *y
	return &v
}
