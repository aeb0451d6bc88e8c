package stretch

import (
	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/resample"

	"github.com/cwbudde/algo-stretch/dsp/guide"
	"github.com/cwbudde/algo-stretch/dsp/ringbuffer"
	"github.com/cwbudde/algo-stretch/dsp/segment"
	"github.com/cwbudde/algo-stretch/dsp/stft"
	"github.com/cwbudde/algo-stretch/dsp/window"
)

// scaleData is the immutable per-FFT-size machinery shared by every channel
// of one engine: windows, transform, phase-advance operator and the
// precomputed analysis·synthesis overlap sum used for gain normalization.
type scaleData struct {
	fftSize int
	bins    int

	// crop is where this size's frame starts inside the longest frame;
	// synthOffset is where the synthesis window sits inside this frame.
	// Both are centered, which keeps every band's output time-aligned up
	// to its own group delay.
	crop        int
	synthOffset int

	analysis  *window.Window
	synthesis *window.Window
	transform *stft.Transform
	advance   *guide.GuidedPhaseAdvance

	overlap float64
}

func newScaleData(fftSize int, cfg guide.Configuration) (*scaleData, error) {
	analysis, err := window.NewHann(fftSize)
	if err != nil {
		return nil, err
	}
	synthesis, err := window.NewHann(fftSize / 2)
	if err != nil {
		return nil, err
	}
	transform, err := stft.New(fftSize)
	if err != nil {
		return nil, err
	}

	synthOffset := fftSize / 4
	return &scaleData{
		fftSize:     fftSize,
		bins:        fftSize/2 + 1,
		crop:        (cfg.Longest - fftSize) / 2,
		synthOffset: synthOffset,
		analysis:    analysis,
		synthesis:   synthesis,
		transform:   transform,
		advance:     guide.NewGuidedPhaseAdvance(fftSize, cfg),
		overlap:     analysis.Overlap(synthesis, synthOffset),
	}, nil
}

// scaleState is one channel's mutable state for one FFT size. All per-bin
// slices are exactly bins long; the accumulator spans the longest frame so
// it is always strictly larger than any legal synthesis hop.
type scaleState struct {
	timeDomain []float64

	mag       []float64
	phase     []float64
	prevMag   []float64
	prevPhase []float64
	outPhase  []float64
	synthMag  []float64

	accumulator []float64
}

func newScaleState(fftSize, longest int) *scaleState {
	bins := fftSize/2 + 1
	return &scaleState{
		timeDomain:  make([]float64, fftSize),
		mag:         make([]float64, bins),
		phase:       make([]float64, bins),
		prevMag:     make([]float64, bins),
		prevPhase:   make([]float64, bins),
		outPhase:    make([]float64, bins),
		synthMag:    make([]float64, bins),
		accumulator: make([]float64, longest),
	}
}

func (ss *scaleState) reset() {
	core.Zero(ss.timeDomain)
	core.Zero(ss.mag)
	core.Zero(ss.phase)
	core.Zero(ss.prevMag)
	core.Zero(ss.prevPhase)
	core.Zero(ss.outPhase)
	core.Zero(ss.synthMag)
	core.Zero(ss.accumulator)
}

// channelState is everything one audio channel owns: stream buffers, one
// scaleState per FFT size, classification state and the optional pitch
// resampler.
type channelState struct {
	inbuf  *ringbuffer.Buffer
	outbuf *ringbuffer.Buffer

	frame   []float64 // longest-frame peek scratch
	mixdown []float64 // per-iteration output scratch, up to longest/2

	scales map[int]*scaleState

	segmenter *segment.BinSegmenter
	seg       segment.Segmentation
	prevSeg   segment.Segmentation
	troughs   []int

	guidance guide.Guidance

	resampler *resample.Resampler
}

func newChannelState(cfg guide.Configuration) *channelState {
	longest := cfg.Longest

	cd := &channelState{
		inbuf:     ringbuffer.New(2 * longest),
		outbuf:    ringbuffer.New(4 * longest),
		frame:     make([]float64, longest),
		mixdown:   make([]float64, longest/2),
		scales:    make(map[int]*scaleState, len(cfg.FFTSizes)),
		segmenter: segment.NewBinSegmenter(cfg.Classification/2 + 1),
		troughs:   make([]int, cfg.Classification/2+1),
	}
	for _, size := range cfg.FFTSizes {
		cd.scales[size] = newScaleState(size, longest)
	}
	return cd
}

func (c *channelState) writeSilence(n int) {
	var zeros [256]float64
	for n > 0 {
		w := min(n, len(zeros))
		c.inbuf.Write(zeros[:w])
		n -= w
	}
}

func (c *channelState) reset() {
	c.inbuf.Reset()
	c.outbuf.Reset()
	core.Zero(c.frame)
	core.Zero(c.mixdown)
	for _, ss := range c.scales {
		ss.reset()
	}
	c.segmenter.Reset()
	c.seg = segment.Segmentation{}
	c.prevSeg = segment.Segmentation{}
	c.guidance.Bands = c.guidance.Bands[:0]
	if c.resampler != nil {
		c.resampler.Reset()
	}
}

// assembly holds the per-channel slice headers handed to the batched phase
// advance, rebuilt per size per iteration without allocating.
type assembly struct {
	mag       [][]float64
	phase     [][]float64
	prevPhase [][]float64
	outPhase  [][]float64
	guidance  []*guide.Guidance
}

func newAssembly(channels int) assembly {
	return assembly{
		mag:       make([][]float64, channels),
		phase:     make([][]float64, channels),
		prevPhase: make([][]float64, channels),
		outPhase:  make([][]float64, channels),
		guidance:  make([]*guide.Guidance, channels),
	}
}
