package domain

import "errors"

// ErrSessionNotFound is returned when a vehicle session cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownPhase is returned when a phase name cannot be parsed.
var ErrUnknownPhase = errors.New("unknown phase")

// ErrUnknownMode is returned when a navigation mode name cannot be parsed.
var ErrUnknownMode = errors.New("unknown navigation mode")

// ErrUnknownParameter is returned when a parameter key is not registered.
var ErrUnknownParameter = errors.New("unknown parameter")

// ErrParameterOutOfRange is returned when a parameter value falls outside its bounds.
var ErrParameterOutOfRange = errors.New("parameter out of range")
