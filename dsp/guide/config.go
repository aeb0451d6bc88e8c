package guide

import "math"

// Configuration fixes the set of simultaneous analysis resolutions for one
// ratio regime. FFTSizes is ascending; Longest defines the master analysis
// grid (buffer and window extents) and Classification the resolution used
// for transient detection. Immutable after construction.
type Configuration struct {
	SampleRate     float64
	FFTSizes       []int
	Longest        int
	Classification int
}

// DefaultConfiguration returns the standard three-resolution setup:
// 1024/2048/4096 with classification at 2048, doubled above 64 kHz so the
// time extents of the analyses stay roughly constant.
func DefaultConfiguration(sampleRate float64) Configuration {
	sizes := []int{1024, 2048, 4096}
	if sampleRate > 64000 {
		sizes = []int{2048, 4096, 8192}
	}

	return Configuration{
		SampleRate:     sampleRate,
		FFTSizes:       sizes,
		Longest:        sizes[len(sizes)-1],
		Classification: sizes[len(sizes)-2],
	}
}

// BinFrequency returns the centre frequency in Hz of the given bin at the
// given FFT size.
func (c Configuration) BinFrequency(fftSize, bin int) float64 {
	return float64(bin) * c.SampleRate / float64(fftSize)
}

// BinRange returns the half-open bin range [lo, hi) of the one-sided
// spectrum for fftSize whose centre frequencies fall in [f0, f1). When f1
// reaches Nyquist the final bin is included so that a full band partition
// covers every bin.
func (c Configuration) BinRange(fftSize int, f0, f1 float64) (lo, hi int) {
	bins := fftSize/2 + 1
	perBin := c.SampleRate / float64(fftSize)

	lo = int(math.Ceil(f0 / perBin))
	if lo < 0 {
		lo = 0
	}

	if f1 >= c.SampleRate/2 {
		hi = bins
	} else {
		hi = int(math.Ceil(f1 / perBin))
	}

	if hi > bins {
		hi = bins
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}
