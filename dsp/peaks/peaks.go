package peaks

// Picker locates local extrema in magnitude spectra. A bin is an extremum
// when it dominates every neighbour within span bins on both sides, with
// plateaus resolved towards the lower index.
type Picker struct {
	span int
}

// NewPicker creates a picker with the given neighbourhood span.
func NewPicker(span int) *Picker {
	if span < 1 {
		span = 1
	}
	return &Picker{span: span}
}

// FindNearestAndNextTroughs fills, for every bin of mag, the index of the
// nearest local minimum and of the next local minimum at or after the bin.
// Either output slice may be nil to skip it; non-nil slices must be at least
// len(mag) long. A spectrum with no interior minima maps every bin to the
// last index.
func (p *Picker) FindNearestAndNextTroughs(mag []float64, nearest, next []int) {
	p.findNearestAndNext(mag, nearest, next, func(a, b float64) bool { return a < b })
}

// FindNearestAndNextPeaks is the local-maximum counterpart of
// FindNearestAndNextTroughs.
func (p *Picker) FindNearestAndNextPeaks(mag []float64, nearest, next []int) {
	p.findNearestAndNext(mag, nearest, next, func(a, b float64) bool { return a > b })
}

func (p *Picker) findNearestAndNext(mag []float64, nearest, next []int, better func(a, b float64) bool) {
	n := len(mag)
	if n == 0 {
		return
	}

	extrema := make([]int, 0, n/2)
	for i := range n {
		if p.isExtremum(mag, i, better) {
			extrema = append(extrema, i)
		}
	}
	if len(extrema) == 0 {
		extrema = append(extrema, n-1)
	}

	ei := 0
	for i := range n {
		// Advance to the extremum closest to bin i.
		for ei+1 < len(extrema) && abs(extrema[ei+1]-i) < abs(extrema[ei]-i) {
			ei++
		}
		if nearest != nil {
			nearest[i] = extrema[ei]
		}
		if next != nil {
			j := ei
			for extrema[j] < i && j+1 < len(extrema) {
				j++
			}
			next[i] = extrema[j]
		}
	}
}

func (p *Picker) isExtremum(mag []float64, i int, better func(a, b float64) bool) bool {
	lo := max(i-p.span, 0)
	hi := min(i+p.span, len(mag)-1)
	for j := lo; j <= hi; j++ {
		if j == i {
			continue
		}
		if better(mag[j], mag[i]) {
			return false
		}
		if mag[j] == mag[i] && j < i {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
