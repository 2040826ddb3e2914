package ownship

import (
	"math"

	"golang.org/x/exp/constraints"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

func clamp[T constraints.Float](x, low, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

// inRange reports whether low <= x <= high. NaN is never in range.
func inRange(x, low, high float64) bool {
	return x >= low && x <= high
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// NormalizeHeading reduces h to [0,360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		// -1e-15 + 360 rounds up to 360
		h = 0
	}
	return h
}

// HeadingDifference returns the minimum difference between two
// headings. The result is always in the range [0,180].
func HeadingDifference(a, b float64) float64 {
	d := math.Abs(NormalizeHeading(a) - NormalizeHeading(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// wrapToZero returns x when it lies in [0,limit) and 0 otherwise. Command
// inputs use this rule rather than modulo arithmetic.
func wrapToZero(x, limit float64) float64 {
	if x >= 0 && x < limit {
		return x
	}
	return 0
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
