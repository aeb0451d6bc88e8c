package segment

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	defaultHistoryLen     = 32
	defaultThresholdK     = 2.5
	defaultThresholdFloor = 1e-6
	primeFrames           = 4
)

// Segmentation is the per-frame transient classification consumed by the
// band guide. Flux and Threshold are retained for diagnostics and for
// downstream reset-strength decisions.
type Segmentation struct {
	Transient bool
	Flux      float64
	Threshold float64
}

// BinSegmenter classifies analysis frames for transient content from
// one-sided magnitude spectra. It is stateful and owned by a single channel:
// it tracks the previous frame's magnitudes and an adaptive flux threshold
// over a sliding history window.
type BinSegmenter struct {
	bins    int
	prevMag []float64
	history []float64
	filled  int
	next    int
	frames  int
}

// NewBinSegmenter creates a segmenter for spectra of the given bin count.
func NewBinSegmenter(bins int) *BinSegmenter {
	if bins < 1 {
		bins = 1
	}
	return &BinSegmenter{
		bins:    bins,
		prevMag: make([]float64, bins),
		history: make([]float64, defaultHistoryLen),
	}
}

// Segment classifies one magnitude frame. A frame is transient when its
// positive spectral flux exceeds the running mean by defaultThresholdK
// standard deviations. The first few frames are never classified as
// transient while the statistics prime.
func (s *BinSegmenter) Segment(mag []float64) Segmentation {
	n := min(len(mag), s.bins)

	flux := 0.0
	for i := range n {
		d := mag[i] - s.prevMag[i]
		if d > 0 {
			flux += d
		}
	}
	copy(s.prevMag, mag[:n])

	threshold := s.threshold()
	s.push(flux)
	s.frames++

	return Segmentation{
		Transient: s.frames > primeFrames && flux > threshold,
		Flux:      flux,
		Threshold: threshold,
	}
}

// Reset returns the segmenter to its initial, unprimed state.
func (s *BinSegmenter) Reset() {
	for i := range s.prevMag {
		s.prevMag[i] = 0
	}
	s.filled = 0
	s.next = 0
	s.frames = 0
}

func (s *BinSegmenter) threshold() float64 {
	if s.filled < primeFrames {
		return math.Inf(1)
	}

	h := s.history[:s.filled]
	mean, std := stat.MeanStdDev(h, nil)
	if math.IsNaN(std) {
		std = 0
	}

	t := mean + defaultThresholdK*std
	if t < defaultThresholdFloor {
		t = defaultThresholdFloor
	}
	return t
}

func (s *BinSegmenter) push(flux float64) {
	s.history[s.next] = flux
	s.next = (s.next + 1) % len(s.history)
	if s.filled < len(s.history) {
		s.filled++
	}
}
