package guide

import (
	"math"

	"github.com/cwbudde/algo-stretch/dsp/peaks"
)

// GuidedPhaseAdvance computes accumulated synthesis phase for one FFT size
// across all channels of an engine. One instance exists per size, shared by
// all channels; the per-channel arrays are supplied per call and never
// retained.
//
// Within a phase-locked band, non-peak bins follow their nearest spectral
// peak with identity locking (Laroche & Dolson 1999): the peak accumulates
// instantaneous-frequency phase and its neighbourhood keeps the analysis
// phase offsets relative to it. PhaseReset bands restart from the analysis
// phase, which is the correct behaviour across a transient.
type GuidedPhaseAdvance struct {
	fftSize int
	bins    int
	cfg     Configuration
	omega   []float64
	picker  *peaks.Picker
	nearest []int
}

// NewGuidedPhaseAdvance creates the operator for the given FFT size.
func NewGuidedPhaseAdvance(fftSize int, cfg Configuration) *GuidedPhaseAdvance {
	bins := fftSize/2 + 1

	omega := make([]float64, bins)
	for k := range omega {
		omega[k] = 2 * math.Pi * float64(k) / float64(fftSize)
	}

	return &GuidedPhaseAdvance{
		fftSize: fftSize,
		bins:    bins,
		cfg:     cfg,
		omega:   omega,
		picker:  peaks.NewPicker(1),
		nearest: make([]int, bins),
	}
}

// Advance updates outPhase in place for every channel. outPhase holds the
// previous iteration's accumulated phase on entry and the new accumulated
// phase on return. mag, phase and prevPhase are the current magnitudes,
// current analysis phases and previous analysis phases. guidance selects,
// per channel, which bands of this FFT size advance, lock or reset.
func (g *GuidedPhaseAdvance) Advance(outPhase, mag, phase, prevPhase [][]float64,
	guidance []*Guidance, inhop, outhop int,
) {
	inhopF := float64(inhop)
	outhopF := float64(outhop)

	for c := range outPhase {
		for _, band := range guidance[c].Bands {
			if band.FFTSize != g.fftSize {
				continue
			}

			lo, hi := g.cfg.BinRange(g.fftSize, band.F0, band.F1)
			if lo >= hi {
				continue
			}

			if band.PhaseReset {
				copy(outPhase[c][lo:hi], phase[c][lo:hi])
				continue
			}

			for k := lo; k < hi; k++ {
				delta := PrincipalArg(phase[c][k] - prevPhase[c][k] - g.omega[k]*inhopF)
				instFreq := g.omega[k] + delta/inhopF
				outPhase[c][k] += instFreq * outhopF
			}

			if band.PhaseLock {
				g.lockToPeaks(outPhase[c], mag[c], phase[c], lo, hi)
			}
		}
	}
}

func (g *GuidedPhaseAdvance) lockToPeaks(outPhase, mag, phase []float64, lo, hi int) {
	nearest := g.nearest[:hi-lo]
	g.picker.FindNearestAndNextPeaks(mag[lo:hi], nearest, nil)

	for k := lo; k < hi; k++ {
		pk := lo + nearest[k-lo]
		if pk == k {
			continue
		}
		outPhase[k] = outPhase[pk] + (phase[k] - phase[pk])
	}
}

// PrincipalArg wraps a phase value into the principal range (-pi, pi].
func PrincipalArg(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x <= 0 {
		x += 2 * math.Pi
	}
	return x - math.Pi
}
