package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when no transition is configured for a trigger
	ErrInvalidTransition = errors.New("invalid review transition")

	// ErrInvalidState is returned for a status outside the review states
	ErrInvalidState = errors.New("invalid review state")

	// ErrGuardFailed is returned when every guarded transition was refused
	ErrGuardFailed = errors.New("review transition refused")
)
