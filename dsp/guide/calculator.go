package guide

import "math"

// Calculator derives the synthesis hop for one iteration from the
// instantaneous stretch regime. It is stateless; the same instance may be
// shared across engines.
type Calculator struct{}

// SingleHop returns the synthesis hop for the given effective ratio and
// analysis hop. invPitchScale is the reciprocal of the pitch scale: when it
// exceeds 1 (pitch shifting down) the post-synthesis resampler expands
// every block by that factor, so the hop cap is tightened to keep emitted
// block sizes bounded by the longest analysis frame.
func (Calculator) SingleHop(ratio, invPitchScale float64, inhop, longest int) int {
	maxHop := longest / 2
	if invPitchScale > 1 {
		maxHop = int(float64(maxHop) / invPitchScale)
	}
	if maxHop < 1 {
		maxHop = 1
	}

	outhop := int(math.Round(float64(inhop) * ratio))
	if outhop < 1 {
		outhop = 1
	}
	if outhop > maxHop {
		outhop = maxHop
	}
	return outhop
}
