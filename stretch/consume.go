package stretch

import (
	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-stretch/dsp/guide"
)

// consume runs the synthesis loop while enough input is buffered and the
// output buffers have room. It is the only place steady-state per-sample
// work happens and is safe to re-enter with partial input: every iteration
// peeks a full longest-size frame, emits one outhop-sized block and advances
// the input by inhop.
func (s *Stretcher) consume() {
	longest := s.cfg.Longest

	for {
		inhop := s.inhop
		outhop := s.calc.SingleHop(s.effectiveRatio(), s.invPitchScale(), inhop, longest)

		have := s.chans[0].inbuf.ReadSpace()
		if s.draining {
			if have == 0 {
				return
			}
		} else if have < longest {
			return
		}

		emit := outhop
		if r := s.chans[0].resampler; r != nil {
			emit = r.PredictOutputLen(outhop)
		}
		if s.chans[0].outbuf.WriteSpace() < emit {
			return
		}

		s.processFrame(inhop, outhop)
	}
}

func (s *Stretcher) processFrame(inhop, outhop int) {
	instRatio := float64(outhop) / float64(inhop)

	// Analysis, transform and classification per channel. The longest
	// frame is peeked non-destructively; shorter sizes are centered crops
	// of it. While draining the peek may come up short and the tail is
	// treated as silence.
	for _, cd := range s.chans {
		n := cd.inbuf.Peek(cd.frame)
		core.Zero(cd.frame[n:])

		for _, sd := range s.scales {
			ss := cd.scales[sd.fftSize]
			sd.analysis.CutFrom(cd.frame[sd.crop:], ss.timeDomain)
			if err := sd.transform.ForwardPolar(ss.timeDomain, ss.mag, ss.phase); err != nil {
				s.logf("WARNING: analysis transform at size %d failed: %v", sd.fftSize, err)
				core.Zero(ss.mag)
				core.Zero(ss.phase)
				continue
			}
			vecmath.ScaleBlock(ss.mag, ss.mag, 1/float64(sd.fftSize))
		}

		cls := cd.scales[s.cfg.Classification]
		cd.prevSeg = cd.seg
		cd.seg = cd.segmenter.Segment(cls.mag)
		s.picker.FindNearestAndNextTroughs(cls.mag, nil, cd.troughs)

		s.guide.Calculate(instRatio, cls.mag, cd.troughs, cls.prevMag,
			cd.seg, cd.prevSeg, &cd.guidance)

		// The very first frame after construction or Reset has no phase
		// history; force a reset so synthesis starts from the analysis
		// phase instead of an arbitrary origin.
		if s.firstFrame {
			for i := range cd.guidance.Bands {
				cd.guidance.Bands[i].PhaseReset = true
			}
		}
	}
	s.firstFrame = false

	// Batched phase advance, once per FFT size across all channels.
	for _, sd := range s.scales {
		for ch, cd := range s.chans {
			ss := cd.scales[sd.fftSize]
			s.asm.mag[ch] = ss.mag
			s.asm.phase[ch] = ss.phase
			s.asm.prevPhase[ch] = ss.prevPhase
			s.asm.outPhase[ch] = ss.outPhase
			s.asm.guidance[ch] = &cd.guidance
		}
		sd.advance.Advance(s.asm.outPhase, s.asm.mag, s.asm.phase,
			s.asm.prevPhase, s.asm.guidance, inhop, outhop)
	}

	for _, cd := range s.chans {
		for _, sd := range s.scales {
			ss := cd.scales[sd.fftSize]

			// Bookkeeping for the next iteration's continuity, then wrap
			// the accumulated output phase to its principal value for
			// inversion.
			copy(ss.prevMag, ss.mag)
			copy(ss.prevPhase, ss.phase)
			for k := range ss.outPhase {
				ss.outPhase[k] = guide.PrincipalArg(ss.outPhase[k])
			}

			// Band-limited reshaping: in-band bins carry the magnitude
			// scaled by the window-compensation factor, everything outside
			// an assigned band is zeroed.
			winscale := float64(outhop) / sd.overlap
			core.Zero(ss.synthMag)
			for _, b := range cd.guidance.Bands {
				if b.FFTSize != sd.fftSize {
					continue
				}
				lo, hi := s.cfg.BinRange(sd.fftSize, b.F0, b.F1)
				vecmath.ScaleBlock(ss.synthMag[lo:hi], ss.mag[lo:hi], winscale)
			}

			if err := sd.transform.InversePolar(ss.synthMag, ss.outPhase, ss.timeDomain); err != nil {
				s.logf("WARNING: synthesis transform at size %d failed: %v", sd.fftSize, err)
				core.Zero(ss.timeDomain)
			}
			sd.synthesis.CutAndAdd(ss.timeDomain[sd.synthOffset:], ss.accumulator)
		}

		// Mixdown across sizes, advance each accumulator by exactly
		// outhop, then commit the block.
		mix := cd.mixdown[:outhop]
		core.Zero(mix)
		for _, sd := range s.scales {
			ss := cd.scales[sd.fftSize]
			vecmath.AddBlockInPlace(mix, ss.accumulator[:outhop])
			copy(ss.accumulator, ss.accumulator[outhop:])
			core.Zero(ss.accumulator[len(ss.accumulator)-outhop:])
		}

		if cd.resampler != nil {
			mix = cd.resampler.Process(mix)
		}
		if n := cd.outbuf.Write(mix); n < len(mix) {
			s.logf("WARNING: output buffer full, dropped %d samples", len(mix)-n)
		}

		cd.inbuf.Skip(inhop)
	}
}
