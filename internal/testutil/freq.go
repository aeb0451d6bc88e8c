package testutil

// MeasureFrequency estimates the dominant frequency of a (near-)sinusoidal
// signal in Hz from its positive-going zero crossings. The estimate averages
// over all full periods inside the slice, which makes it robust to small
// per-sample errors but assumes a single dominant component.
func MeasureFrequency(signal []float64, sampleRate float64) float64 {
	first := -1.0
	last := -1.0
	crossings := 0

	for i := 1; i < len(signal); i++ {
		if signal[i-1] >= 0 || signal[i] < 0 {
			continue
		}
		// Linear interpolation of the crossing position between i-1 and i.
		den := signal[i] - signal[i-1]
		pos := float64(i-1) - signal[i-1]/den

		if first < 0 {
			first = pos
		}
		last = pos
		crossings++
	}

	if crossings < 2 || last <= first {
		return 0
	}

	periods := float64(crossings - 1)
	return periods * sampleRate / (last - first)
}
