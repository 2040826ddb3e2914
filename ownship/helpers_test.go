package ownship

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

var testEpoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// constantTurnProfile turns at 3 deg/s with full rudder and reaches that rate
// within one tick, which keeps expected headings easy to compute.
func constantTurnProfile() *Profile {
	one := func(current, target float64) float64 { return 1 }
	return &Profile{
		ProfileName:  "constant turn",
		RudderMax:    30,
		RudderRate:   300,
		AheadMax:     40,
		AsternMax:    10,
		ForwardSlow:  one,
		ForwardFast:  one,
		AftSlow:      one,
		AftFast:      one,
		TurnRate:     func(speed, rudder float64) float64 { return 3 * math.Abs(rudder) / 30 },
		TurnRateTime: func(speed, rudder float64) float64 { return math.Abs(rudder) / 300 },
	}
}

// Helper function to create a controller driven by a manual scheduler
func createTestController(config Config, profile ShipProfile) (*Controller, *ManualScheduler) {
	sched := NewManualScheduler(NewManualClock(testEpoch))
	c, err := NewController(config, WithProfile(profile), WithManualTime(sched), WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		panic(fmt.Sprintf("Failed to create test controller: %v", err))
	}
	if err := c.Open(); err != nil {
		panic(fmt.Sprintf("Failed to open test controller: %v", err))
	}
	return c, sched
}

func testConfig() Config {
	config := DefaultConfig()
	config.Latitude = 0
	config.Longitude = 0
	return config
}
