package stretch

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/resample"

	"github.com/cwbudde/algo-stretch/dsp/guide"
	"github.com/cwbudde/algo-stretch/dsp/peaks"
)

// Logger receives diagnostic messages from a Stretcher. Messages that report
// a degraded condition are prefixed "WARNING:". The hot path never fails
// hard; everything abnormal is reported here and processing continues.
type Logger func(message string)

const (
	// nominalInhop is the analysis hop at ratio 1. The hop controller
	// shrinks it when stretching and grows it (up to maxInhop) when
	// compressing, so the synthesis hop stays near the nominal value.
	nominalInhop = 256
	maxInhop     = 340

	// recommendedBlockSize is the feed/pull granularity the engine is
	// tuned for. Larger blocks work but grow buffering transients.
	recommendedBlockSize = 512
)

type config struct {
	logger Logger
}

// Option configures a Stretcher at construction.
type Option func(*config)

// WithLogger routes diagnostics to l instead of discarding them.
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Stretcher is a streaming time-stretch/pitch-shift engine for one
// multi-channel audio stream. It is not safe for concurrent use.
type Stretcher struct {
	sampleRate float64
	channels   int
	log        Logger

	timeRatio  float64
	pitchScale float64
	inhop      int

	cfg    guide.Configuration
	guide  *guide.Guide
	calc   guide.Calculator
	picker *peaks.Picker

	scales []*scaleData
	chans  []*channelState
	asm    assembly

	draining   bool
	firstFrame bool
}

// New creates a Stretcher for the given sample rate and channel count with
// identity ratios. Construction is the only place hard errors originate;
// after a successful New the engine only degrades, never fails.
func New(sampleRate float64, channels int, opts ...Option) (*Stretcher, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		return nil, fmt.Errorf("stretch: invalid sample rate %v", sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("stretch: channel count must be at least 1: %d", channels)
	}

	var c config
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	cfg := guide.DefaultConfiguration(sampleRate)

	s := &Stretcher{
		sampleRate: sampleRate,
		channels:   channels,
		log:        c.logger,
		timeRatio:  1,
		pitchScale: 1,
		inhop:      nominalInhop,
		cfg:        cfg,
		guide:      guide.NewGuide(cfg),
		picker:     peaks.NewPicker(3),
		firstFrame: true,
	}

	for _, size := range cfg.FFTSizes {
		sd, err := newScaleData(size, cfg)
		if err != nil {
			return nil, fmt.Errorf("stretch: %w", err)
		}
		s.scales = append(s.scales, sd)
	}

	for ch := 0; ch < channels; ch++ {
		s.chans = append(s.chans, newChannelState(cfg))
	}

	s.asm = newAssembly(channels)
	s.prefill()

	return s, nil
}

// SetTimeRatio sets the requested duration multiplier and recomputes the
// analysis hop. Any value is accepted; degenerate ratios are clamped with a
// warning rather than rejected.
func (s *Stretcher) SetTimeRatio(ratio float64) {
	s.timeRatio = ratio
	s.calculateHop()
}

// SetPitchScale sets the requested frequency multiplier. The spectral
// stretch absorbs the scale into the effective ratio and a per-channel
// resampler restores the original duration, which shifts the pitch.
func (s *Stretcher) SetPitchScale(scale float64) {
	s.pitchScale = scale
	s.calculateHop()
	s.rebuildResamplers()
}

// TimeRatio returns the current duration multiplier.
func (s *Stretcher) TimeRatio() float64 { return s.timeRatio }

// PitchScale returns the current frequency multiplier.
func (s *Stretcher) PitchScale() float64 { return s.pitchScale }

// ChannelCount returns the number of audio channels.
func (s *Stretcher) ChannelCount() int { return s.channels }

// BlockSize returns the recommended Process/Retrieve chunk size in samples.
func (s *Stretcher) BlockSize() int { return recommendedBlockSize }

// Latency returns the start delay in output samples: once the stream has
// settled, output sample n+Latency corresponds to input sample n. The input
// buffers are primed with a longest-frame of zeros; after the centered crop
// (half a frame of lead) and the lowest band's synthesis-window group delay
// (a quarter frame) the aligned delay is three quarters of the longest
// analysis frame.
func (s *Stretcher) Latency() int {
	return 3 * s.cfg.Longest / 4
}

// SamplesRequired returns how many more input samples Process needs before
// the consume loop can run, or 0 if enough is already buffered. While
// draining it is always 0.
func (s *Stretcher) SamplesRequired() int {
	if s.draining {
		return 0
	}
	if need := s.cfg.Longest - s.chans[0].inbuf.ReadSpace(); need > 0 {
		return need
	}
	return 0
}

// Process appends one block of input samples per channel and runs the
// consume loop. final marks the end of the stream and switches the engine
// into draining mode, after which buffered tail samples are flushed with
// zero padding. Process never fails; caller contract violations (oversized
// blocks, mismatched channel counts, data after final) degrade with logged
// warnings.
func (s *Stretcher) Process(input [][]float64, final bool) {
	if s.draining {
		s.logf("WARNING: Process called after the final block was marked")
	}
	if final {
		s.draining = true
	}

	n := 0
	for ch := 0; ch < s.channels && ch < len(input); ch++ {
		if ch == 0 || len(input[ch]) < n {
			n = len(input[ch])
		}
	}
	if len(input) != s.channels {
		s.logf("WARNING: expected %d input channels, got %d", s.channels, len(input))
	}

	if n > 0 {
		if space := s.chans[0].inbuf.WriteSpace(); n > space {
			grown := s.chans[0].inbuf.Size() + n - space
			s.logf("WARNING: growing input buffer from %d to %d samples; feed smaller blocks",
				s.chans[0].inbuf.Size(), grown)
			for _, cd := range s.chans {
				cd.inbuf = cd.inbuf.Resized(grown)
			}
		}

		for ch, cd := range s.chans {
			if ch < len(input) {
				cd.inbuf.Write(input[ch][:n])
			} else {
				cd.writeSilence(n)
			}
		}
	}

	s.consume()
}

// Available returns the number of output samples ready per channel, or -1
// once the stream is fully drained and no further output will ever appear.
func (s *Stretcher) Available() int {
	ready := s.chans[0].outbuf.ReadSpace()
	if ready == 0 && s.draining && s.chans[0].inbuf.ReadSpace() == 0 {
		return -1
	}
	return ready
}

// Retrieve copies up to len(output[ch]) ready samples into every channel
// slice and returns the count actually delivered, which is equal across
// channels unless the engine is in a degraded state (then the minimum is
// returned and a warning logged). While draining, Retrieve re-runs the
// consume loop so the buffered tail becomes retrievable without further
// Process calls.
func (s *Stretcher) Retrieve(output [][]float64) int {
	want := 0
	for ch := 0; ch < s.channels && ch < len(output); ch++ {
		if ch == 0 || len(output[ch]) < want {
			want = len(output[ch])
		}
	}

	got := want
	for ch := 0; ch < s.channels && ch < len(output); ch++ {
		n := s.chans[ch].outbuf.Read(output[ch][:got])
		if n < got {
			if ch > 0 {
				s.logf("WARNING: channel %d delivered %d samples where channel 0 delivered %d",
					ch, n, got)
			}
			got = n
		}
	}

	if s.draining {
		s.consume()
	}
	return got
}

// Reset returns the engine to its initial state: buffers cleared and
// re-primed, phase and classification state discarded, draining cleared.
// Ratios and the resampling stage are kept.
func (s *Stretcher) Reset() {
	s.draining = false
	s.firstFrame = true
	for _, cd := range s.chans {
		cd.reset()
	}
	s.prefill()
}

// calculateHop recomputes the analysis hop from the effective ratio.
// Stretching shrinks the hop so the synthesis hop stays near nominal;
// compression grows it, bounded by maxInhop to cap memory and latency.
func (s *Stretcher) calculateHop() {
	ratio := s.effectiveRatio()

	inhop := 1
	switch {
	case ratio <= 0 || math.IsNaN(ratio):
		s.logf("WARNING: degenerate ratio %v, clamping analysis hop to 1", ratio)
	case ratio > 1:
		inhop = int(math.Round(nominalInhop / ratio))
		if inhop < 1 {
			inhop = 1
			s.logf("WARNING: extreme ratio %v wants a sub-sample analysis hop, clamping to 1", ratio)
		}
	default:
		inhop = int(math.Round(math.Min(nominalInhop/ratio, maxInhop)))
	}

	if inhop != s.inhop {
		s.inhop = inhop
		s.logf("analysis hop %d for effective ratio %v", inhop, ratio)
	}
}

func (s *Stretcher) effectiveRatio() float64 {
	return s.timeRatio * s.pitchScale
}

func (s *Stretcher) invPitchScale() float64 {
	if s.pitchScale > 0 {
		return 1 / s.pitchScale
	}
	return 1
}

func (s *Stretcher) rebuildResamplers() {
	if s.pitchScale == 1 || s.pitchScale <= 0 {
		for _, cd := range s.chans {
			cd.resampler = nil
		}
		return
	}

	for ch, cd := range s.chans {
		r, err := resample.NewForRates(s.pitchScale, 1,
			resample.WithQuality(resample.QualityBalanced))
		if err != nil {
			s.logf("WARNING: resampler unavailable for pitch scale %v (%v); channel %d stays unshifted",
				s.pitchScale, err, ch)
			cd.resampler = nil
			continue
		}
		cd.resampler = r
	}
}

// prefill primes every input buffer with a longest-frame of silence so the
// first analysis frames are fully populated and the overlap-add windup
// finishes inside the reported start delay.
func (s *Stretcher) prefill() {
	for _, cd := range s.chans {
		cd.writeSilence(s.cfg.Longest)
	}
}

func (s *Stretcher) logf(format string, args ...any) {
	if s.log != nil {
		s.log(fmt.Sprintf(format, args...))
	}
}
