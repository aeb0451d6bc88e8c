package guide

import (
	"math"
	"testing"
)

func singleScaleConfig(fftSize int) Configuration {
	return Configuration{
		SampleRate:     48000,
		FFTSizes:       []int{fftSize},
		Longest:        fftSize,
		Classification: fftSize,
	}
}

func fullBand(fftSize int, lock, reset bool) *Guidance {
	return &Guidance{Bands: []Band{{
		FFTSize:    fftSize,
		F0:         0,
		F1:         24000,
		PhaseLock:  lock,
		PhaseReset: reset,
	}}}
}

func TestPrincipalArg(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "zero", in: 0, want: 0},
		{name: "pi stays pi", in: math.Pi, want: math.Pi},
		{name: "minus pi wraps to pi", in: -math.Pi, want: math.Pi},
		{name: "small negative", in: -0.5, want: -0.5},
		{name: "wrap down", in: 2*math.Pi + 0.25, want: 0.25},
		{name: "wrap up", in: -3 * math.Pi / 2, want: math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PrincipalArg(tt.in)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("PrincipalArg(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// With a steady tone whose per-frame phase increment matches the bin
// frequency exactly, identity hops must reproduce the analysis phase.
func TestAdvanceIdentityReproducesPhase(t *testing.T) {
	const (
		fftSize = 512
		inhop   = 128
		frames  = 8
	)

	cfg := singleScaleConfig(fftSize)
	adv := NewGuidedPhaseAdvance(fftSize, cfg)
	bins := fftSize/2 + 1

	mag := make([]float64, bins)
	phase := make([]float64, bins)
	prevPhase := make([]float64, bins)
	outPhase := make([]float64, bins)

	for k := range mag {
		mag[k] = 1
	}

	phaseAt := func(k, frame int) float64 {
		return PrincipalArg(2 * math.Pi * float64(k) / fftSize * float64(inhop*frame))
	}

	// Frame 0: reset to analysis phase.
	for k := range phase {
		phase[k] = phaseAt(k, 0)
	}
	adv.Advance([][]float64{outPhase}, [][]float64{mag}, [][]float64{phase},
		[][]float64{prevPhase}, []*Guidance{fullBand(fftSize, false, true)}, inhop, inhop)

	for frame := 1; frame < frames; frame++ {
		copy(prevPhase, phase)
		for k := range phase {
			phase[k] = phaseAt(k, frame)
		}

		adv.Advance([][]float64{outPhase}, [][]float64{mag}, [][]float64{phase},
			[][]float64{prevPhase}, []*Guidance{fullBand(fftSize, false, false)}, inhop, inhop)

		for k := range phase {
			diff := math.Abs(PrincipalArg(outPhase[k] - phase[k]))
			if diff > 1e-9 {
				t.Fatalf("frame %d bin %d: synthesis phase off by %v", frame, k, diff)
			}
		}
	}
}

func TestAdvanceDoubleHopDoublesPhase(t *testing.T) {
	const (
		fftSize = 256
		inhop   = 64
		outhop  = 128
		bin     = 17
	)

	cfg := singleScaleConfig(fftSize)
	adv := NewGuidedPhaseAdvance(fftSize, cfg)
	bins := fftSize/2 + 1

	mag := make([]float64, bins)
	phase := make([]float64, bins)
	prevPhase := make([]float64, bins)
	outPhase := make([]float64, bins)
	mag[bin] = 1

	omega := 2 * math.Pi * float64(bin) / fftSize

	// Prime with a reset at frame 0 (zero phase), then advance one frame
	// whose analysis phase advanced by omega*inhop.
	adv.Advance([][]float64{outPhase}, [][]float64{mag}, [][]float64{phase},
		[][]float64{prevPhase}, []*Guidance{fullBand(fftSize, false, true)}, inhop, outhop)

	copy(prevPhase, phase)
	phase[bin] = PrincipalArg(omega * inhop)

	adv.Advance([][]float64{outPhase}, [][]float64{mag}, [][]float64{phase},
		[][]float64{prevPhase}, []*Guidance{fullBand(fftSize, false, false)}, inhop, outhop)

	want := PrincipalArg(omega * outhop)
	got := PrincipalArg(outPhase[bin])
	if math.Abs(PrincipalArg(got-want)) > 1e-9 {
		t.Fatalf("outPhase[%d] = %v, want %v", bin, got, want)
	}
}

func TestAdvancePhaseLockFollowsPeak(t *testing.T) {
	const (
		fftSize = 256
		inhop   = 64
		peak    = 20
	)

	cfg := singleScaleConfig(fftSize)
	adv := NewGuidedPhaseAdvance(fftSize, cfg)
	bins := fftSize/2 + 1

	mag := make([]float64, bins)
	phase := make([]float64, bins)
	prevPhase := make([]float64, bins)
	outPhase := make([]float64, bins)

	for k := range mag {
		mag[k] = 0.1
	}
	mag[peak] = 10

	for k := range phase {
		phase[k] = PrincipalArg(0.11 * float64(k))
		prevPhase[k] = phase[k]
		outPhase[k] = float64(k) // deliberately incoherent
	}

	adv.Advance([][]float64{outPhase}, [][]float64{mag}, [][]float64{phase},
		[][]float64{prevPhase}, []*Guidance{fullBand(fftSize, true, false)}, inhop, inhop)

	// Identity locking: near the peak, synthesis phase offsets mirror the
	// analysis phase offsets exactly.
	for k := peak - 3; k <= peak+3; k++ {
		if k == peak {
			continue
		}
		gotOffset := outPhase[k] - outPhase[peak]
		wantOffset := phase[k] - phase[peak]
		if math.Abs(PrincipalArg(gotOffset-wantOffset)) > 1e-9 {
			t.Fatalf("bin %d: locked offset %v, want %v", k, gotOffset, wantOffset)
		}
	}
}

func TestAdvanceResetCopiesAnalysisPhase(t *testing.T) {
	const fftSize = 128

	cfg := singleScaleConfig(fftSize)
	adv := NewGuidedPhaseAdvance(fftSize, cfg)
	bins := fftSize/2 + 1

	mag := make([]float64, bins)
	phase := make([]float64, bins)
	prevPhase := make([]float64, bins)
	outPhase := make([]float64, bins)

	for k := range phase {
		phase[k] = PrincipalArg(0.3 * float64(k))
		outPhase[k] = 99
	}

	adv.Advance([][]float64{outPhase}, [][]float64{mag}, [][]float64{phase},
		[][]float64{prevPhase}, []*Guidance{fullBand(fftSize, true, true)}, 64, 64)

	for k := range phase {
		if outPhase[k] != phase[k] {
			t.Fatalf("bin %d: outPhase %v, want analysis phase %v", k, outPhase[k], phase[k])
		}
	}
}

func TestAdvanceIgnoresOtherSizes(t *testing.T) {
	cfg := singleScaleConfig(128)
	adv := NewGuidedPhaseAdvance(128, cfg)
	bins := 128/2 + 1

	outPhase := make([]float64, bins)
	buf := make([]float64, bins)

	adv.Advance([][]float64{outPhase}, [][]float64{buf}, [][]float64{buf},
		[][]float64{buf}, []*Guidance{fullBand(4096, true, true)}, 64, 64)

	for k, v := range outPhase {
		if v != 0 {
			t.Fatalf("bin %d modified by foreign-size band: %v", k, v)
		}
	}
}
