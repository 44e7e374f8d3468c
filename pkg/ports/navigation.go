package ports

import "github.com/aretw0/homeward/pkg/domain"

// NavigationContext is the owning navigator seen from a flight phase.
// Position estimates are read-only snapshots for the current cycle; the
// triplet is owned by the navigator and mutated in place by the active phase.
type NavigationContext interface {
	Landed() bool
	GlobalPosition() domain.GlobalPosition
	HomePosition() domain.HomePosition

	LoiterRadius() float64
	AcceptanceRadius() float64
	// RotaryWing reports whether the vehicle can hold a heading in place.
	RotaryWing() bool

	// Triplet returns the outstanding setpoints for in-place update.
	Triplet() *domain.SetpointTriplet
	// SetTripletUpdated signals the position controller that the triplet changed.
	SetTripletUpdated()

	// CanLoiterAtSetpoint reports whether the vehicle may keep holding at the
	// current setpoint, i.e. nothing has repositioned it since.
	CanLoiterAtSetpoint() bool
	SetCanLoiterAtSetpoint(bool)
}
