package guide

import (
	"math"

	"github.com/cwbudde/algo-stretch/dsp/segment"
)

const (
	defaultLowCrossover  = 700.0
	defaultHighCrossover = 2400.0

	// troughSnapTolerance bounds how far (relative to the nominal
	// crossover) a band edge may follow a spectral trough.
	troughSnapTolerance = 0.25

	// hardResetFluxFactor marks an onset strong enough to reset even the
	// lowest band's phase continuity.
	hardResetFluxFactor = 2.0
)

// Guide converts per-frame classification results into band guidance.
// One Guide is shared by all channels of an engine; it is stateless apart
// from its immutable configuration.
type Guide struct {
	cfg  Configuration
	low  float64
	high float64
}

// NewGuide creates a Guide for the given configuration.
func NewGuide(cfg Configuration) *Guide {
	return &Guide{
		cfg:  cfg,
		low:  defaultLowCrossover,
		high: defaultHighCrossover,
	}
}

// Calculate fills out with the band assignment for one frame.
//
// mag, troughs and prevMag are the classification-resolution magnitude
// spectrum, per-bin next-trough indices and previous magnitudes. ratio is
// the instantaneous stretch factor (outhop/inhop). seg and prevSeg are the
// current and previous transient segmentations; a rising transient edge
// triggers phase resets on the upper bands, and a strong one on all bands.
func (g *Guide) Calculate(ratio float64, mag []float64, troughs []int, prevMag []float64,
	seg, prevSeg segment.Segmentation, out *Guidance,
) {
	_ = prevMag // retained by callers for continuity; not needed by the band split

	nyquist := g.cfg.SampleRate / 2
	out.Bands = out.Bands[:0]

	sizes := g.cfg.FFTSizes
	if len(sizes) < 3 {
		out.Bands = append(out.Bands, Band{
			FFTSize:    g.cfg.Longest,
			F0:         0,
			F1:         nyquist,
			PhaseLock:  true,
			PhaseReset: g.onset(seg, prevSeg),
		})
		return
	}

	f1 := g.snapToTrough(g.low, mag, troughs)
	f2 := g.snapToTrough(g.high, mag, troughs)

	// At strong stretches low-frequency phase coherence dominates the
	// perceived quality, so the longest resolution takes a wider band.
	if ratio > 1.5 {
		f1 = math.Min(f1*2, f2/2)
	}

	if f1 <= 0 || f2 <= f1 || f2 >= nyquist {
		f2 = math.Min(g.high, nyquist*0.8)
		f1 = math.Min(g.low, f2/2)
	}

	onset := g.onset(seg, prevSeg)
	hard := onset && seg.Threshold > 0 && !math.IsInf(seg.Threshold, 1) &&
		seg.Flux > hardResetFluxFactor*seg.Threshold

	longest := sizes[len(sizes)-1]
	middle := sizes[len(sizes)-2]
	shortest := sizes[0]

	out.Bands = append(out.Bands,
		Band{FFTSize: longest, F0: 0, F1: f1, PhaseLock: true, PhaseReset: hard},
		Band{FFTSize: middle, F0: f1, F1: f2, PhaseLock: true, PhaseReset: onset},
		Band{FFTSize: shortest, F0: f2, F1: nyquist, PhaseLock: true, PhaseReset: onset},
	)
}

func (g *Guide) onset(seg, prevSeg segment.Segmentation) bool {
	return seg.Transient && !prevSeg.Transient
}

// snapToTrough moves a nominal crossover frequency to the next spectral
// trough at the classification resolution, so band edges avoid cutting
// through spectral peaks. The snap is bounded to troughSnapTolerance of the
// nominal frequency.
func (g *Guide) snapToTrough(nominal float64, mag []float64, troughs []int) float64 {
	if len(troughs) == 0 {
		return nominal
	}

	bin := int(math.Round(nominal * float64(g.cfg.Classification) / g.cfg.SampleRate))
	if bin < 0 || bin >= len(troughs) || bin >= len(mag) {
		return nominal
	}

	snapped := g.cfg.BinFrequency(g.cfg.Classification, troughs[bin])
	if math.Abs(snapped-nominal) > nominal*troughSnapTolerance {
		return nominal
	}
	return snapped
}
