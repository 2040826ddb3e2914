package ownship

import (
	"fmt"
	"math"
)

// VectorUnit selects how the two constructor values of a NavigationVector
// are interpreted.
type VectorUnit int

const (
	// Degrees means (length, angle in degrees clockwise from north).
	Degrees VectorUnit = iota
	// Radians means (length, angle in radians clockwise from north).
	Radians
	// Coordinates means (east component, north component).
	Coordinates
)

// NavigationVector is a 2-D vector kept in both polar and Cartesian form.
// Angles follow the compass convention: measured clockwise from north.
// XLon is the east component and YLat the north component. Every setter
// refreshes both representations, so getters never observe stale values.
type NavigationVector struct {
	length float64
	angle  float64 // radians, [0, 2π)
	x      float64
	y      float64
}

// NewNavigationVector builds a vector from two values interpreted per unit.
func NewNavigationVector(v1, v2 float64, unit VectorUnit) NavigationVector {
	var v NavigationVector
	switch unit {
	case Degrees:
		v.setPolar(v1, v2*degToRad)
	case Radians:
		v.setPolar(v1, v2)
	default:
		v.setCartesian(v1, v2)
	}
	return v
}

func (v *NavigationVector) setPolar(length, angle float64) {
	if length < 0 {
		length = -length
		angle += math.Pi
	}
	v.length = length
	v.angle = normalizeRadians(angle)
	v.x = length * math.Sin(v.angle)
	v.y = length * math.Cos(v.angle)
}

func (v *NavigationVector) setCartesian(x, y float64) {
	v.x = x
	v.y = y
	v.length = math.Hypot(x, y)
	if v.length == 0 {
		v.angle = 0
		return
	}
	// acos gives [0,π]; west of the meridian the angle is the reflex one.
	a := math.Acos(clamp(y/v.length, -1, 1))
	if x < 0 {
		a = 2*math.Pi - a
	}
	v.angle = normalizeRadians(a)
}

func normalizeRadians(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// Add returns the vector sum of v and o.
func (v NavigationVector) Add(o NavigationVector) NavigationVector {
	return NewNavigationVector(v.x+o.x, v.y+o.y, Coordinates)
}

// Subtract returns the vector difference v - o.
func (v NavigationVector) Subtract(o NavigationVector) NavigationVector {
	return NewNavigationVector(v.x-o.x, v.y-o.y, Coordinates)
}

func (v NavigationVector) Length() float64            { return v.length }
func (v NavigationVector) AngleRadians() float64      { return v.angle }
func (v NavigationVector) AngleDegrees() float64      { return NormalizeHeading(v.angle * radToDeg) }
func (v NavigationVector) XLon() float64              { return v.x }
func (v NavigationVector) YLat() float64              { return v.y }
func (v *NavigationVector) SetLength(l float64)       { v.setPolar(l, v.angle) }
func (v *NavigationVector) SetAngleRadians(a float64) { v.setPolar(v.length, a) }
func (v *NavigationVector) SetAngleDegrees(a float64) { v.setPolar(v.length, a*degToRad) }
func (v *NavigationVector) SetXLon(x float64)         { v.setCartesian(x, v.y) }
func (v *NavigationVector) SetYLat(y float64)         { v.setCartesian(v.x, y) }

// SetCartesian replaces both components at once.
func (v *NavigationVector) SetCartesian(x, y float64) { v.setCartesian(x, y) }

func (v NavigationVector) String() string {
	return fmt.Sprintf("%.2f@%05.1f", v.length, v.AngleDegrees())
}
