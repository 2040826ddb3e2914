package ownship

import (
	"math"
	"time"
)

// Global command bounds shared by every ship profile.
const (
	SpeedMin    = -10.0 // knots
	SpeedMax    = 50.0  // knots
	RudderLimit = 90.0  // degrees either side
	DriftMax    = 6.0   // knots
)

// DefaultTickInterval is the fixed integration step of the simulator.
const DefaultTickInterval = 100 * time.Millisecond

// Config holds the initial conditions of the ownship simulation
type Config struct {
	TickInterval time.Duration // fixed simulation step
	Latitude     float64       // decimal degrees
	Longitude    float64       // decimal degrees
	Heading      float64       // degrees true (0-359)
	Speed        float64       // initial throttle and speed in knots
	Depth        float64       // water depth under the keel in meters
	Set          float64       // current direction in degrees
	Drift        float64       // current speed in knots
	StartTime    time.Time     // simulated start instant (zero = wall clock)
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		TickInterval: DefaultTickInterval,
		Latitude:     37.8083, // San Francisco Bay, off Alcatraz
		Longitude:    -122.4156,
		Heading:      0.0,
		Speed:        0.0,
		Depth:        20.0,
		Set:          0.0,
		Drift:        0.0,
	}
}

// Validate checks if the configuration is valid and returns an error if not
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return ErrInvalidTickInterval
	}
	if !inRange(c.Latitude, -90, 90) {
		return ErrInvalidLatitude
	}
	if !inRange(c.Longitude, -180, 180) {
		return ErrInvalidLongitude
	}
	if !inRange(c.Heading, 0, 360) || c.Heading == 360 {
		return ErrInvalidHeading
	}
	if !inRange(c.Speed, SpeedMin, SpeedMax) {
		return ErrInvalidSpeed
	}
	if !inRange(c.Set, 0, 360) || c.Set == 360 {
		return ErrInvalidSet
	}
	if !inRange(c.Drift, 0, DriftMax) {
		return ErrInvalidDrift
	}
	if math.IsNaN(c.Depth) || c.Depth < 0 {
		return ErrInvalidDepth
	}
	return nil
}
