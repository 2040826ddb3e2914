package ownship

import (
	"math"
	"sort"
)

// ShipProfile describes the handling characteristics of a vessel class.
// Acceleration and turn-rate curves return magnitudes; the simulator applies
// the sign from the direction of travel and the side of the rudder.
type ShipProfile interface {
	Name() string
	RudderAngleMax() float64    // degrees either side
	RudderVelocityMax() float64 // degrees per second
	SpeedAheadMax() float64     // knots
	SpeedAsternMax() float64    // knots, positive magnitude

	// Speed change rates in knots per second. "Fast" curves apply when the
	// ordered speed is further from zero than the current speed in the
	// current direction of travel, "Slow" curves when the ship is slowing.
	AccelerationForwardSlow(current, target float64) float64
	AccelerationForwardFast(current, target float64) float64
	AccelerationAftSlow(current, target float64) float64
	AccelerationAftFast(current, target float64) float64

	// MaxHeadingVelocity is the steady rate of turn in degrees per second
	// reached with the given speed and rudder.
	MaxHeadingVelocity(speed, rudder float64) float64
	// TimeToMaxHeadingVelocity is the time in seconds needed to build up
	// to MaxHeadingVelocity.
	TimeToMaxHeadingVelocity(speed, rudder float64) float64
}

// AccelerationCurve maps (current speed, ordered speed) to knots per second.
type AccelerationCurve func(current, target float64) float64

// TurnCurve maps (speed, rudder angle) to a turn characteristic.
type TurnCurve func(speed, rudder float64) float64

// Profile is a data-driven ShipProfile. Nil curves evaluate to zero.
type Profile struct {
	ProfileName  string
	RudderMax    float64
	RudderRate   float64
	AheadMax     float64
	AsternMax    float64
	ForwardSlow  AccelerationCurve
	ForwardFast  AccelerationCurve
	AftSlow      AccelerationCurve
	AftFast      AccelerationCurve
	TurnRate     TurnCurve
	TurnRateTime TurnCurve
}

var _ ShipProfile = (*Profile)(nil)

func (p *Profile) Name() string               { return p.ProfileName }
func (p *Profile) RudderAngleMax() float64    { return p.RudderMax }
func (p *Profile) RudderVelocityMax() float64 { return p.RudderRate }
func (p *Profile) SpeedAheadMax() float64     { return p.AheadMax }
func (p *Profile) SpeedAsternMax() float64    { return p.AsternMax }

func (p *Profile) AccelerationForwardSlow(current, target float64) float64 {
	return evalAcceleration(p.ForwardSlow, current, target)
}

func (p *Profile) AccelerationForwardFast(current, target float64) float64 {
	return evalAcceleration(p.ForwardFast, current, target)
}

func (p *Profile) AccelerationAftSlow(current, target float64) float64 {
	return evalAcceleration(p.AftSlow, current, target)
}

func (p *Profile) AccelerationAftFast(current, target float64) float64 {
	return evalAcceleration(p.AftFast, current, target)
}

func (p *Profile) MaxHeadingVelocity(speed, rudder float64) float64 {
	return evalTurn(p.TurnRate, speed, rudder)
}

func (p *Profile) TimeToMaxHeadingVelocity(speed, rudder float64) float64 {
	return evalTurn(p.TurnRateTime, speed, rudder)
}

func evalAcceleration(c AccelerationCurve, current, target float64) float64 {
	if c == nil {
		return 0
	}
	if v := c(current, target); finite(v) {
		return math.Abs(v)
	}
	return 0
}

func evalTurn(c TurnCurve, speed, rudder float64) float64 {
	if c == nil {
		return 0
	}
	if v := c(speed, rudder); finite(v) {
		return math.Abs(v)
	}
	return 0
}

// TablePoint is one sample of a Table.
type TablePoint struct {
	X, Y float64
}

// Table is a lookup table sorted by X.
type Table []TablePoint

// Interpolate returns Y at x, interpolating linearly between samples and
// holding the end values outside the sampled range.
func (t Table) Interpolate(x float64) float64 {
	if len(t) == 0 {
		return 0
	}
	i := sort.Search(len(t), func(i int) bool { return t[i].X >= x })
	switch {
	case i == 0:
		return t[0].Y
	case i == len(t):
		return t[len(t)-1].Y
	}
	a, b := t[i-1], t[i]
	if b.X == a.X {
		return b.Y
	}
	return a.Y + (b.Y-a.Y)*(x-a.X)/(b.X-a.X)
}

// Step returns the Y of the last sample whose X does not exceed x.
func (t Table) Step(x float64) float64 {
	if len(t) == 0 {
		return 0
	}
	i := sort.Search(len(t), func(i int) bool { return t[i].X > x })
	if i == 0 {
		return t[0].Y
	}
	return t[i-1].Y
}

// PatrolBoat returns the default profile: a twin-screw coastal patrol boat.
func PatrolBoat() *Profile {
	const (
		rudderMax = 35.0
		aheadMax  = 30.0
		asternMax = 8.0
	)

	// steady rate of turn at full rudder, deg/s, by speed in knots
	fullRudderRate := Table{
		{0, 0}, {2, 0.8}, {5, 2.0}, {10, 3.5}, {20, 5.0}, {30, 6.0},
	}
	// time to settle into the turn, seconds, by speed band
	turnLag := Table{
		{0, 12}, {5, 8}, {15, 5},
	}

	return &Profile{
		ProfileName: "patrol boat",
		RudderMax:   rudderMax,
		RudderRate:  5.0,
		AheadMax:    aheadMax,
		AsternMax:   asternMax,
		ForwardFast: func(current, target float64) float64 {
			f := current / aheadMax
			return math.Max(0.1, 1.2*(1-f*f))
		},
		ForwardSlow: func(current, target float64) float64 {
			f := current / aheadMax
			a := 0.3 + 0.6*f*f
			if target < 0 {
				// backing down the screws
				a += 0.4
			}
			return a
		},
		AftFast: func(current, target float64) float64 {
			f := current / asternMax
			return math.Max(0.05, 0.5*(1-f*f))
		},
		AftSlow: func(current, target float64) float64 {
			if target > 0 {
				return 0.9
			}
			return 0.6
		},
		TurnRate: func(speed, rudder float64) float64 {
			r := math.Min(math.Abs(rudder), rudderMax) / rudderMax
			return fullRudderRate.Interpolate(math.Abs(speed)) * r
		},
		TurnRateTime: func(speed, rudder float64) float64 {
			return turnLag.Step(math.Abs(speed))
		},
	}
}
