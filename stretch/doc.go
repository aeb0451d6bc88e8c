// Package stretch implements a streaming time-stretch and pitch-shift
// engine built on a guided multi-resolution phase vocoder.
//
// Each input frame is analysed at several FFT sizes simultaneously. A
// transient classifier and a band guide decide, per frame and per frequency
// band, which resolution synthesises that band and whether its phase track
// continues, locks to spectral peaks, or resets. The per-size resyntheses
// are overlap-added into a single output stream; an optional resampling
// stage converts a plain time-stretch into a pitch shift.
//
// The API is push/pull: feed blocks with Process, poll Available, and drain
// with Retrieve. One Stretcher is owned by one goroutine; there is no
// internal locking and no operation blocks.
package stretch
