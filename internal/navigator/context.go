package navigator

import (
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
)

// vehicleState is the NavigationContext handed to flight phases.
// It is only touched while the Navigator lock is held.
type vehicleState struct {
	landed   bool
	position domain.GlobalPosition
	home     domain.HomePosition

	loiterRadius     float64
	acceptanceRadius float64
	fixedWing        bool

	triplet   domain.SetpointTriplet
	updated   bool
	canLoiter bool
}

var _ ports.NavigationContext = (*vehicleState)(nil)

func (s *vehicleState) Landed() bool                          { return s.landed }
func (s *vehicleState) GlobalPosition() domain.GlobalPosition { return s.position }
func (s *vehicleState) HomePosition() domain.HomePosition     { return s.home }
func (s *vehicleState) LoiterRadius() float64                 { return s.loiterRadius }
func (s *vehicleState) AcceptanceRadius() float64             { return s.acceptanceRadius }
func (s *vehicleState) RotaryWing() bool                      { return !s.fixedWing }
func (s *vehicleState) Triplet() *domain.SetpointTriplet      { return &s.triplet }
func (s *vehicleState) SetTripletUpdated()                    { s.updated = true }
func (s *vehicleState) CanLoiterAtSetpoint() bool             { return s.canLoiter }
func (s *vehicleState) SetCanLoiterAtSetpoint(v bool)         { s.canLoiter = v }
