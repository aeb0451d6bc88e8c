package guide

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-stretch/dsp/segment"
)

func TestDefaultConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		rate        float64
		wantLongest int
		wantClass   int
	}{
		{name: "44100", rate: 44100, wantLongest: 4096, wantClass: 2048},
		{name: "48000", rate: 48000, wantLongest: 4096, wantClass: 2048},
		{name: "96000", rate: 96000, wantLongest: 8192, wantClass: 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration(tt.rate)
			if cfg.Longest != tt.wantLongest {
				t.Fatalf("Longest = %d, want %d", cfg.Longest, tt.wantLongest)
			}
			if cfg.Classification != tt.wantClass {
				t.Fatalf("Classification = %d, want %d", cfg.Classification, tt.wantClass)
			}
			for i := 1; i < len(cfg.FFTSizes); i++ {
				if cfg.FFTSizes[i] <= cfg.FFTSizes[i-1] {
					t.Fatalf("FFTSizes not ascending: %v", cfg.FFTSizes)
				}
			}
		})
	}
}

func TestBinRangePartition(t *testing.T) {
	cfg := DefaultConfiguration(48000)

	for _, fftSize := range cfg.FFTSizes {
		bins := fftSize/2 + 1

		lo1, hi1 := cfg.BinRange(fftSize, 0, 700)
		lo2, hi2 := cfg.BinRange(fftSize, 700, 2400)
		lo3, hi3 := cfg.BinRange(fftSize, 2400, 24000)

		if lo1 != 0 {
			t.Fatalf("size %d: first band starts at %d", fftSize, lo1)
		}
		if hi1 != lo2 || hi2 != lo3 {
			t.Fatalf("size %d: ranges not contiguous: %d/%d, %d/%d", fftSize, hi1, lo2, hi2, lo3)
		}
		if hi3 != bins {
			t.Fatalf("size %d: last band ends at %d, want %d", fftSize, hi3, bins)
		}
	}
}

func steadySeg() segment.Segmentation {
	return segment.Segmentation{Transient: false, Flux: 0.1, Threshold: 1}
}

func TestCalculateBandsPartitionSpectrum(t *testing.T) {
	cfg := DefaultConfiguration(44100)
	g := NewGuide(cfg)

	bins := cfg.Classification/2 + 1
	mag := make([]float64, bins)
	for i := range mag {
		mag[i] = 1 / float64(i+1)
	}

	var out Guidance
	g.Calculate(1.0, mag, nil, nil, steadySeg(), steadySeg(), &out)

	if len(out.Bands) != 3 {
		t.Fatalf("band count = %d, want 3", len(out.Bands))
	}

	if out.Bands[0].F0 != 0 {
		t.Fatalf("first band starts at %v Hz", out.Bands[0].F0)
	}
	if out.Bands[len(out.Bands)-1].F1 != cfg.SampleRate/2 {
		t.Fatalf("last band ends at %v Hz, want Nyquist", out.Bands[len(out.Bands)-1].F1)
	}

	for i := 1; i < len(out.Bands); i++ {
		if out.Bands[i].F0 != out.Bands[i-1].F1 {
			t.Fatalf("bands %d/%d not contiguous: %v != %v", i-1, i, out.Bands[i-1].F1, out.Bands[i].F0)
		}
	}

	// Longest size takes the lowest band, shortest the highest.
	if out.Bands[0].FFTSize != 4096 || out.Bands[2].FFTSize != 1024 {
		t.Fatalf("band size order: %d, %d, %d", out.Bands[0].FFTSize, out.Bands[1].FFTSize, out.Bands[2].FFTSize)
	}
}

func TestCalculateEveryBinCovered(t *testing.T) {
	cfg := DefaultConfiguration(44100)
	g := NewGuide(cfg)

	bins := cfg.Classification/2 + 1
	mag := make([]float64, bins)
	for i := range mag {
		mag[i] = math.Abs(math.Sin(float64(i) * 0.37))
	}

	var out Guidance
	g.Calculate(1.7, mag, nil, nil, steadySeg(), steadySeg(), &out)

	for _, fftSize := range cfg.FFTSizes {
		covered := make([]int, fftSize/2+1)
		for _, b := range out.Bands {
			if b.FFTSize != fftSize {
				continue
			}
			lo, hi := cfg.BinRange(fftSize, b.F0, b.F1)
			for k := lo; k < hi; k++ {
				covered[k]++
			}
		}
		for k, n := range covered {
			if n > 1 {
				t.Fatalf("size %d bin %d assigned to %d bands", fftSize, k, n)
			}
		}
	}

	// Across all sizes, the union of assigned ranges covers [0, Nyquist].
	for _, b := range out.Bands {
		if b.F1 <= b.F0 {
			t.Fatalf("degenerate band %+v", b)
		}
	}
}

func TestCalculateOnsetResetsUpperBands(t *testing.T) {
	cfg := DefaultConfiguration(48000)
	g := NewGuide(cfg)

	mag := make([]float64, cfg.Classification/2+1)
	onset := segment.Segmentation{Transient: true, Flux: 1.5, Threshold: 1}

	var out Guidance
	g.Calculate(1.0, mag, nil, nil, onset, steadySeg(), &out)

	if out.Bands[0].PhaseReset {
		t.Fatalf("moderate onset reset the bass band")
	}
	if !out.Bands[1].PhaseReset || !out.Bands[2].PhaseReset {
		t.Fatalf("onset did not reset upper bands: %+v", out.Bands)
	}

	// Strong onset resets everything.
	strong := segment.Segmentation{Transient: true, Flux: 5, Threshold: 1}
	g.Calculate(1.0, mag, nil, nil, strong, steadySeg(), &out)

	for i, b := range out.Bands {
		if !b.PhaseReset {
			t.Fatalf("strong onset left band %d unreset", i)
		}
	}

	// A sustained transient (no rising edge) does not reset.
	g.Calculate(1.0, mag, nil, nil, onset, onset, &out)
	for i, b := range out.Bands {
		if b.PhaseReset {
			t.Fatalf("sustained transient reset band %d", i)
		}
	}
}

func TestCalculateSnapsToTroughs(t *testing.T) {
	cfg := DefaultConfiguration(48000)
	g := NewGuide(cfg)

	bins := cfg.Classification/2 + 1
	mag := make([]float64, bins)
	troughs := make([]int, bins)

	// Nominal low crossover 700 Hz -> bin 30 at 2048/48k. Report the next
	// trough a few bins up, still inside the snap tolerance.
	nominalBin := int(math.Round(700 * float64(cfg.Classification) / cfg.SampleRate))
	for i := range troughs {
		troughs[i] = i
	}
	troughs[nominalBin] = nominalBin + 3

	var out Guidance
	g.Calculate(1.0, mag, troughs, nil, steadySeg(), steadySeg(), &out)

	want := cfg.BinFrequency(cfg.Classification, nominalBin+3)
	if math.Abs(out.Bands[0].F1-want) > 1e-9 {
		t.Fatalf("low crossover = %v, want trough-snapped %v", out.Bands[0].F1, want)
	}

	// A trough too far away is ignored.
	troughs[nominalBin] = nominalBin * 3
	g.Calculate(1.0, mag, troughs, nil, steadySeg(), steadySeg(), &out)
	if out.Bands[0].F1 != 700 {
		t.Fatalf("distant trough not rejected: crossover %v", out.Bands[0].F1)
	}
}

func TestSingleHop(t *testing.T) {
	var c Calculator

	tests := []struct {
		name          string
		ratio         float64
		invPitchScale float64
		inhop         int
		longest       int
		want          int
	}{
		{name: "identity", ratio: 1, invPitchScale: 1, inhop: 256, longest: 4096, want: 256},
		{name: "double", ratio: 2, invPitchScale: 1, inhop: 128, longest: 4096, want: 256},
		{name: "half", ratio: 0.5, invPitchScale: 1, inhop: 340, longest: 4096, want: 170},
		{name: "capped", ratio: 16, invPitchScale: 1, inhop: 256, longest: 4096, want: 2048},
		{name: "floored", ratio: 0.001, invPitchScale: 1, inhop: 256, longest: 4096, want: 1},
		{name: "pitch down tightens cap", ratio: 16, invPitchScale: 2, inhop: 256, longest: 4096, want: 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.SingleHop(tt.ratio, tt.invPitchScale, tt.inhop, tt.longest)
			if got != tt.want {
				t.Fatalf("SingleHop() = %d, want %d", got, tt.want)
			}
		})
	}
}
