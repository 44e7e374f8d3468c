package navigator

import (
	"github.com/aretw0/homeward/pkg/domain"
)

// flightPhase is one selectable navigation behavior. Every cycle exactly one
// phase is active; all others receive OnInactive.
type flightPhase interface {
	OnInactive()
	OnActivation()
	OnActive()
}

// holdPhase keeps the vehicle where it is.
type holdPhase struct {
	state *vehicleState
}

func (h *holdPhase) OnInactive() {}

func (h *holdPhase) OnActivation() {
	triplet := h.state.Triplet()

	// Keep holding at the outstanding setpoint if nothing moved it,
	// otherwise hold where the vehicle is now.
	if !h.state.canLoiter || !triplet.Current.Valid {
		pos := h.state.position
		triplet.Current = domain.PositionSetpoint{
			Valid:            true,
			Lat:              pos.Lat,
			Lon:              pos.Lon,
			Alt:              pos.Alt,
			AcceptanceRadius: h.state.acceptanceRadius,
		}
	}
	if h.state.landed {
		triplet.Current.Type = domain.SetpointIdle
	} else {
		triplet.Current.Type = domain.SetpointLoiter
	}
	triplet.Current.LoiterRadius = h.state.loiterRadius
	triplet.Current.LoiterDirection = 1
	triplet.Previous.Valid = false
	triplet.Next.Valid = false

	h.state.SetCanLoiterAtSetpoint(true)
	h.state.SetTripletUpdated()
}

func (h *holdPhase) OnActive() {}

// repositionPhase flies to an operator target and holds there.
type repositionPhase struct {
	state  *vehicleState
	target domain.PositionSetpoint
}

func (r *repositionPhase) OnInactive() {}

func (r *repositionPhase) OnActivation() {
	r.apply()
}

func (r *repositionPhase) OnActive() {}

func (r *repositionPhase) apply() {
	triplet := r.state.Triplet()
	if triplet.Current.Valid {
		triplet.Previous = triplet.Current
	}
	triplet.Current = r.target
	triplet.Current.Valid = true
	triplet.Current.Type = domain.SetpointLoiter
	triplet.Current.LoiterRadius = r.state.loiterRadius
	triplet.Current.LoiterDirection = 1
	triplet.Current.AcceptanceRadius = r.state.acceptanceRadius
	triplet.Next.Valid = false

	r.state.SetCanLoiterAtSetpoint(true)
	r.state.SetTripletUpdated()
}
