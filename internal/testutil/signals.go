// Package testutil provides deterministic audio test signals and
// assertion helpers shared by the engine and DSP package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine returns a sine tone starting at phase zero. The same
// arguments always produce the same samples.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// FadedSine returns a sine tone whose first fade samples ramp up under a
// raised-cosine envelope. An abrupt tone start is itself a transient and
// rings through windowed analysis; fading in keeps reconstruction tests
// measuring steady-state behaviour rather than the edge.
func FadedSine(freqHz, sampleRate, amplitude float64, length, fade int) []float64 {
	out := DeterministicSine(freqHz, sampleRate, amplitude, length)
	for i := 0; i < fade && i < len(out); i++ {
		out[i] *= 0.5 - 0.5*math.Cos(math.Pi*float64(i)/float64(fade))
	}
	return out
}

// DeterministicNoise returns uniform white noise in [-amplitude, amplitude]
// from a fixed-seed source, so broadband test inputs stay reproducible.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse returns a unit impulse at pos. Out-of-range positions yield
// silence.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC returns a constant signal. Feeding DC(1, n) through an overlap-add
// chain exposes window normalisation errors directly in the output level.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}
