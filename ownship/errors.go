package ownship

import "errors"

// Common errors returned by the ownship simulator
var (
	ErrInvalidTickInterval = errors.New("tick interval must be positive")
	ErrInvalidLatitude     = errors.New("latitude must be between -90.0 and 90.0 degrees")
	ErrInvalidLongitude    = errors.New("longitude must be between -180.0 and 180.0 degrees")
	ErrInvalidHeading      = errors.New("heading must be between 0.0 and 359.9 degrees")
	ErrInvalidSpeed        = errors.New("speed must be between -10.0 and 50.0 knots")
	ErrInvalidSet          = errors.New("set must be between 0.0 and 359.9 degrees")
	ErrInvalidDrift        = errors.New("drift must be between 0.0 and 6.0 knots")
	ErrInvalidDepth        = errors.New("depth must be non-negative")
	ErrClockAlreadyRunning = errors.New("simulation clock is already running")
	ErrClockNotRunning     = errors.New("simulation clock is not running")
)

// Errors returned when parsing autopilot settings from text
var (
	ErrUnknownMode          = errors.New("unknown autopilot mode")
	ErrUnknownPatternType   = errors.New("unknown pattern type")
	ErrUnknownTurnDirection = errors.New("unknown turn direction")
)
