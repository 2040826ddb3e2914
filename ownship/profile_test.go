package ownship

import (
	"math"
	"testing"
)

func TestTableInterpolate(t *testing.T) {
	table := Table{{0, 0}, {10, 5}, {20, 6}}
	tests := []struct {
		x, want float64
	}{
		{-5, 0},
		{0, 0},
		{5, 2.5},
		{10, 5},
		{15, 5.5},
		{25, 6},
	}
	for _, tt := range tests {
		if got := table.Interpolate(tt.x); !almostEqual(got, tt.want, 1e-12) {
			t.Errorf("Interpolate(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
	if got := (Table{}).Interpolate(3); got != 0 {
		t.Errorf("Expected empty table to give 0, got %v", got)
	}
}

func TestTableStep(t *testing.T) {
	table := Table{{0, 12}, {5, 8}, {15, 5}}
	tests := []struct {
		x, want float64
	}{
		{-1, 12},
		{0, 12},
		{4.9, 12},
		{5, 8},
		{14, 8},
		{15, 5},
		{40, 5},
	}
	for _, tt := range tests {
		if got := table.Step(tt.x); got != tt.want {
			t.Errorf("Step(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestPatrolBoat(t *testing.T) {
	p := PatrolBoat()

	if p.RudderAngleMax() != 35 || p.RudderVelocityMax() != 5 {
		t.Errorf("Unexpected rudder characteristics %f/%f", p.RudderAngleMax(), p.RudderVelocityMax())
	}
	if p.SpeedAheadMax() != 30 || p.SpeedAsternMax() != 8 {
		t.Errorf("Unexpected speed limits %f/%f", p.SpeedAheadMax(), p.SpeedAsternMax())
	}

	if got := p.MaxHeadingVelocity(10, 35); !almostEqual(got, 3.5, 1e-12) {
		t.Errorf("Expected 3.5 deg/s at full rudder and 10 kt, got %f", got)
	}
	if got := p.MaxHeadingVelocity(10, -17.5); !almostEqual(got, 1.75, 1e-12) {
		t.Errorf("Expected a magnitude for port rudder, got %f", got)
	}
	if got := p.MaxHeadingVelocity(0, 35); got != 0 {
		t.Errorf("Expected no turn when stopped, got %f", got)
	}
	if got := p.TimeToMaxHeadingVelocity(-6, 10); got != 8 {
		t.Errorf("Expected astern speed to use its magnitude, got %f", got)
	}

	for _, speed := range []float64{-8, -4, 0, 5, 15, 29} {
		for _, target := range []float64{-8, 0, 30} {
			for name, a := range map[string]float64{
				"forward_slow": p.AccelerationForwardSlow(speed, target),
				"forward_fast": p.AccelerationForwardFast(speed, target),
				"aft_slow":     p.AccelerationAftSlow(speed, target),
				"aft_fast":     p.AccelerationAftFast(speed, target),
			} {
				if a <= 0 || math.IsNaN(a) {
					t.Errorf("%s(%v,%v) = %v, expected a positive rate", name, speed, target, a)
				}
			}
		}
	}
}

func TestProfileCurveGuards(t *testing.T) {
	p := &Profile{
		ForwardFast: func(current, target float64) float64 { return -2 },
		ForwardSlow: func(current, target float64) float64 { return math.NaN() },
		TurnRate:    func(speed, rudder float64) float64 { return math.Inf(1) },
	}

	if got := p.AccelerationForwardFast(0, 10); got != 2 {
		t.Errorf("Expected magnitude 2, got %f", got)
	}
	if got := p.AccelerationForwardSlow(0, 10); got != 0 {
		t.Errorf("Expected NaN curve to give 0, got %f", got)
	}
	if got := p.MaxHeadingVelocity(10, 10); got != 0 {
		t.Errorf("Expected infinite curve to give 0, got %f", got)
	}
	if got := p.AccelerationAftFast(0, -5); got != 0 {
		t.Errorf("Expected nil curve to give 0, got %f", got)
	}
	if got := p.TimeToMaxHeadingVelocity(5, 5); got != 0 {
		t.Errorf("Expected nil curve to give 0, got %f", got)
	}
}
