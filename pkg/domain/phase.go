package domain

import (
	"fmt"
	"strings"
)

// Phase is a step of the return-to-launch sequence.
type Phase int

const (
	// PhaseNone is the pre-entry sentinel: the next activation re-runs the entry decision.
	PhaseNone Phase = iota
	PhaseClimb
	PhaseReturn
	PhaseDescend
	PhaseLoiter
	PhaseLand
	// PhaseLanded is terminal for the duration of an activation.
	PhaseLanded
)

var phaseNames = map[Phase]string{
	PhaseNone:    "NONE",
	PhaseClimb:   "CLIMB",
	PhaseReturn:  "RETURN",
	PhaseDescend: "DESCEND",
	PhaseLoiter:  "LOITER",
	PhaseLand:    "LAND",
	PhaseLanded:  "LANDED",
}

// Phases lists every phase in sequence order.
var Phases = []Phase{PhaseNone, PhaseClimb, PhaseReturn, PhaseDescend, PhaseLoiter, PhaseLand, PhaseLanded}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Terminal reports whether no further transition can leave the phase.
func (p Phase) Terminal() bool {
	return p == PhaseLanded
}

// ParsePhase converts a phase name into a Phase.
func ParsePhase(value string) (Phase, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for phase, name := range phaseNames {
		if name == normalized {
			return phase, nil
		}
	}
	return PhaseNone, fmt.Errorf("%w: %q", ErrUnknownPhase, value)
}

// MarshalText encodes the phase by name (used by JSON and YAML).
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText allows phases to be loaded from names.
func (p *Phase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
