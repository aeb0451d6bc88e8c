package guide

// Band is one frequency range of a Guidance, synthesized by a single FFT
// size. Frequencies are in Hz; a bin belongs to the band when its centre
// frequency lies in [F0, F1).
type Band struct {
	FFTSize    int
	F0, F1     float64
	PhaseLock  bool
	PhaseReset bool
}

// Guidance is the per-channel, per-frame band assignment. Bands are ordered
// by ascending frequency, non-overlapping, and together cover the full
// spectrum up to Nyquist. A Guidance is recalculated every frame and must
// not be retained across iterations.
type Guidance struct {
	Bands []Band
}
