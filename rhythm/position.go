package rhythm

import "github.com/robmorgan/conductor/engine/scale"

// NormalizedPosition maps pos onto the window [start, start+length] as a 0-1 progress value. The result is not
// clamped, so positions outside the window extrapolate.
func NormalizedPosition(pos, start, length float64) float64 {
	return scale.Normalize(pos, start, start+length)
}

// LoopingPosition returns the phase of pos within a loop of the given length, shifted by offset loops.
// The result is always in [0,1).
func LoopingPosition(pos, offset, length float64) float64 {
	return scale.Repeat(pos/length+offset, 1)
}

// MarginPosition normalises pos over the window of margin length that ends at target. With a target of 4 and a
// margin of 1, a position of 3.5 gives 0.5.
func MarginPosition(pos, target, margin float64) float64 {
	return NormalizedPosition(pos, target-margin, margin)
}
