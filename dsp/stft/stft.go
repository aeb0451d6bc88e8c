package stft

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Transform converts real time-domain frames to one-sided polar spectra and
// back, wrapping a complex FFT plan.
//
// ForwardPolar leaves magnitudes unnormalized; callers that scale magnitudes
// by 1/Size after analysis get unit round trip from InversePolar, which
// compensates by Size on synthesis. This split matches overlap-add pipelines
// that reshape magnitudes between the two transforms.
type Transform struct {
	size int
	bins int
	plan *algofft.Plan[complex128]
	work []complex128
	spec []complex128
}

// New creates a transform for the given FFT size.
// The size must be a power of two and at least 2.
func New(size int) (*Transform, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("stft: size must be a power of two >= 2: %d", size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}

	return &Transform{
		size: size,
		bins: size/2 + 1,
		plan: plan,
		work: make([]complex128, size),
		spec: make([]complex128, size),
	}, nil
}

// Size returns the FFT size in samples.
func (t *Transform) Size() int { return t.size }

// Bins returns the one-sided spectrum length, Size/2+1.
func (t *Transform) Bins() int { return t.bins }

// ForwardPolar transforms frame (len Size) into one-sided magnitude and
// phase arrays (len Bins). Magnitudes are unnormalized.
func (t *Transform) ForwardPolar(frame []float64, mag, phase []float64) error {
	if len(frame) != t.size {
		return fmt.Errorf("stft: frame length %d, want %d", len(frame), t.size)
	}
	if len(mag) < t.bins || len(phase) < t.bins {
		return fmt.Errorf("stft: polar buffers too short: %d/%d, want %d", len(mag), len(phase), t.bins)
	}

	for i, x := range frame {
		t.work[i] = complex(x, 0)
	}

	if err := t.plan.Forward(t.spec, t.work); err != nil {
		return fmt.Errorf("stft: forward FFT failed: %w", err)
	}

	for k := range t.bins {
		re := real(t.spec[k])
		im := imag(t.spec[k])
		mag[k] = math.Hypot(re, im)
		phase[k] = math.Atan2(im, re)
	}

	return nil
}

// InversePolar reconstructs a real time-domain frame (len Size) from
// one-sided magnitude and phase arrays whose magnitudes were normalized by
// 1/Size after analysis.
func (t *Transform) InversePolar(mag, phase []float64, frame []float64) error {
	if len(frame) != t.size {
		return fmt.Errorf("stft: frame length %d, want %d", len(frame), t.size)
	}
	if len(mag) < t.bins || len(phase) < t.bins {
		return fmt.Errorf("stft: polar buffers too short: %d/%d, want %d", len(mag), len(phase), t.bins)
	}

	half := t.size / 2
	for k := range t.bins {
		t.spec[k] = complex(mag[k]*math.Cos(phase[k]), mag[k]*math.Sin(phase[k]))
	}

	// Force real DC/Nyquist and mirror the upper half for a real result.
	t.spec[0] = complex(real(t.spec[0]), 0)
	t.spec[half] = complex(real(t.spec[half]), 0)
	for k := 1; k < half; k++ {
		v := t.spec[k]
		t.spec[t.size-k] = complex(real(v), -imag(v))
	}

	if err := t.plan.Inverse(t.work, t.spec); err != nil {
		return fmt.Errorf("stft: inverse FFT failed: %w", err)
	}

	// The plan's inverse includes 1/Size normalization; the analysis side
	// already applied it, so undo it here.
	scale := float64(t.size)
	for i := range frame {
		frame[i] = real(t.work[i]) * scale
	}

	return nil
}
