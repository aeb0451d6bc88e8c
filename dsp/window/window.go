package window

import (
	"fmt"

	algowindow "github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// Window holds fixed coefficients for one analysis or synthesis window and
// applies them to sample frames.
type Window struct {
	typ    algowindow.Type
	coeffs []float64
}

// New generates a window of the given shape and size in periodic (FFT
// framing) form.
func New(typ algowindow.Type, size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window: size must be positive: %d", size)
	}

	coeffs := algowindow.Generate(typ, size, algowindow.WithPeriodic())
	if len(coeffs) != size {
		return nil, fmt.Errorf("window: generation failed for size %d", size)
	}

	return &Window{typ: typ, coeffs: coeffs}, nil
}

// NewHann generates a periodic Hann window of the given size.
func NewHann(size int) (*Window, error) {
	return New(algowindow.TypeHann, size)
}

// Size returns the window length in samples.
func (w *Window) Size() int {
	return len(w.coeffs)
}

// ValueAt returns the coefficient at index i, or 0 outside the window.
func (w *Window) ValueAt(i int) float64 {
	if i < 0 || i >= len(w.coeffs) {
		return 0
	}
	return w.coeffs[i]
}

// Cut multiplies buf in place by the window coefficients.
// buf must be at least Size samples long; only the first Size are touched.
func (w *Window) Cut(buf []float64) {
	vecmath.MulBlockInPlace(buf[:len(w.coeffs)], w.coeffs)
}

// CutFrom writes src multiplied by the window into dst.
// Both slices must be at least Size samples long.
func (w *Window) CutFrom(src, dst []float64) {
	vecmath.MulBlock(dst[:len(w.coeffs)], src[:len(w.coeffs)], w.coeffs)
}

// CutAndAdd accumulates src multiplied by the window into dst.
// Both slices must be at least Size samples long.
func (w *Window) CutAndAdd(src, dst []float64) {
	for i, c := range w.coeffs {
		dst[i] += src[i] * c
	}
}

// Overlap returns the inner product of this window against other, with this
// window read starting at offset. This is the normalization term for
// windowed overlap-add: the analysis window is the receiver and the
// (shorter, centered) synthesis window is the argument.
func (w *Window) Overlap(other *Window, offset int) float64 {
	sum := 0.0
	for i := range other.coeffs {
		sum += w.ValueAt(i+offset) * other.coeffs[i]
	}
	return sum
}
