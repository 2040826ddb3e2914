package ownship

import (
	"fmt"
	"strings"
	"time"
)

// SimulationStatus is the state of the simulator state machine.
type SimulationStatus int

const (
	// Paused freezes motion while the simulated clock keeps running.
	Paused SimulationStatus = iota
	// Playing integrates motion and advances the clock.
	Playing
	// Stopped freezes both motion and the simulated clock.
	Stopped
)

var simulationStatusNames = [...]string{"PAUSED", "PLAYING", "STOPPED"}

func (s SimulationStatus) String() string {
	if int(s) < len(simulationStatusNames) {
		return simulationStatusNames[s]
	}
	return fmt.Sprintf("SimulationStatus(%d)", int(s))
}

func (s SimulationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SimulationStatus) UnmarshalText(b []byte) error {
	for i, n := range simulationStatusNames {
		if strings.EqualFold(string(b), n) {
			*s = SimulationStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown simulation status %q", b)
}

// ControlStatus reports which input source last commanded the ship.
type ControlStatus int

const (
	UserControl ControlStatus = iota
	AutopilotControl
)

func (c ControlStatus) String() string {
	if c == AutopilotControl {
		return "AUTOPILOT"
	}
	return "USER"
}

func (c ControlStatus) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ControlStatus) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "USER":
		*c = UserControl
	case "AUTOPILOT":
		*c = AutopilotControl
	default:
		return fmt.Errorf("unknown control status %q", b)
	}
	return nil
}

// OwnshipUpdate is an immutable snapshot of the ownship state published once
// per simulator tick. It holds no references, so a plain copy is a deep copy.
type OwnshipUpdate struct {
	Time                time.Time        `json:"time"`
	Status              SimulationStatus `json:"status"`
	Latitude            float64          `json:"latitude"`
	Longitude           float64          `json:"longitude"`
	Depth               float64          `json:"depth"`                // meters
	RudderHelm          float64          `json:"rudder_helm"`          // degrees, + starboard
	RudderActual        float64          `json:"rudder_actual"`        // degrees, + starboard
	HeadingAcceleration float64          `json:"heading_acceleration"` // degrees/second²
	HeadingVelocity     float64          `json:"heading_velocity"`     // degrees/minute
	HeadingActual       float64          `json:"heading_actual"`       // degrees true
	HeadingOverGround   float64          `json:"heading_over_ground"`  // degrees true
	SpeedThrottle       float64          `json:"speed_throttle"`       // knots
	SpeedAcceleration   float64          `json:"speed_acceleration"`   // knots/second
	SpeedActual         float64          `json:"speed_actual"`         // knots through water
	SpeedOverGround     float64          `json:"speed_over_ground"`    // knots
	Set                 float64          `json:"set"`                  // degrees
	Drift               float64          `json:"drift"`                // knots
}

// HeadingSpeed is an instantaneous heading and ordered speed override.
type HeadingSpeed struct {
	Heading float64 `json:"heading"`
	Speed   float64 `json:"speed"`
}

// SetDrift describes the ambient current.
type SetDrift struct {
	Set   float64 `json:"set"`
	Drift float64 `json:"drift"`
}

// Position is a latitude/longitude pair in decimal degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Listener receives every OwnshipUpdate. It is called on the simulation
// goroutine and must not block.
type Listener interface {
	OnOwnshipUpdate(u OwnshipUpdate)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(OwnshipUpdate)

func (f ListenerFunc) OnOwnshipUpdate(u OwnshipUpdate) { f(u) }
