package scale

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp limits t to the interval [min,max]. The bounds may be given in either order.
func Clamp[T constraints.Float](t, min, max T) T {
	if min > max {
		min, max = max, min
	}
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}

// Lerp interpolates linearly between a and b. t is not clamped.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// Normalize maps v from the interval [min,max] onto the unit interval without clamping, so values
// outside the interval extrapolate below 0 or above 1.
func Normalize[T constraints.Float](v, min, max T) T {
	return (v - min) / (max - min)
}

// Repeat wraps t into [0,length), the way a looping position wraps around.
func Repeat(t, length float64) float64 {
	r := t - math.Floor(t/length)*length
	// floating point can land exactly on length for tiny negative t
	if r >= length {
		return 0
	}
	return Clamp(r, 0, length)
}
