package domain

import (
	"fmt"
	"strings"
)

// NavMode is the navigation phase selected by the host scheduler.
// The return-to-launch controller is active only while the mode is ModeRTL.
type NavMode string

const (
	// ModeHold keeps the vehicle at its last setpoint.
	ModeHold NavMode = "hold"
	// ModeReposition flies to an operator-supplied position.
	ModeReposition NavMode = "reposition"
	// ModeRTL runs the return-to-launch sequence.
	ModeRTL NavMode = "rtl"
)

// ParseMode converts a mode name into a NavMode.
func ParseMode(value string) (NavMode, error) {
	normalized := NavMode(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ModeHold, ModeReposition, ModeRTL:
		return normalized, nil
	default:
		return ModeHold, fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

// UnmarshalText allows modes to be loaded from config files in any case.
func (m *NavMode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
