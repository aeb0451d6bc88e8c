// Package guide decides, frame by frame, which spectral resolution
// synthesizes which frequency band and how synthesis phase should track
// analysis phase across that band.
//
// A Guide turns a classification spectrum, trough locations and transient
// segmentation into a Guidance: an ordered set of disjoint frequency bands
// that partition the spectrum, each tagged with the FFT size responsible
// for it and with its phase-continuation policy. GuidedPhaseAdvance then
// applies those policies when advancing accumulated synthesis phase.
package guide
