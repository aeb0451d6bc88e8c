package ringbuffer

// Buffer is a single-owner FIFO for float64 samples.
//
// It supports non-destructive inspection (Peek) alongside destructive reads
// (Read, Skip), which streaming analysers need: a consumer can repeatedly
// peek a full analysis frame while only advancing by a hop. The buffer is
// not safe for concurrent use; the intended owner is a single processing
// thread.
type Buffer struct {
	data []float64
	head int // index of the oldest sample
	fill int // number of readable samples
}

// New returns an empty buffer holding up to size samples.
func New(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{data: make([]float64, size)}
}

// Size returns the total capacity in samples.
func (b *Buffer) Size() int {
	return len(b.data)
}

// ReadSpace returns the number of samples available to read.
func (b *Buffer) ReadSpace() int {
	return b.fill
}

// WriteSpace returns the number of samples that can be written without
// overwriting unread data.
func (b *Buffer) WriteSpace() int {
	return len(b.data) - b.fill
}

// Write appends up to len(src) samples and returns the number written.
// Samples beyond the available write space are dropped.
func (b *Buffer) Write(src []float64) int {
	n := min(len(src), b.WriteSpace())
	tail := (b.head + b.fill) % len(b.data)
	first := min(n, len(b.data)-tail)
	copy(b.data[tail:], src[:first])
	copy(b.data, src[first:n])
	b.fill += n
	return n
}

// Peek copies up to len(dst) samples into dst without consuming them and
// returns the number copied.
func (b *Buffer) Peek(dst []float64) int {
	n := min(len(dst), b.fill)
	first := min(n, len(b.data)-b.head)
	copy(dst, b.data[b.head:b.head+first])
	copy(dst[first:n], b.data)
	return n
}

// Read copies up to len(dst) samples into dst, consuming them, and returns
// the number copied.
func (b *Buffer) Read(dst []float64) int {
	n := b.Peek(dst)
	b.advance(n)
	return n
}

// Skip consumes up to n samples without copying them and returns the number
// consumed.
func (b *Buffer) Skip(n int) int {
	if n < 0 {
		return 0
	}
	n = min(n, b.fill)
	b.advance(n)
	return n
}

// Resized returns a new buffer of the given capacity containing this
// buffer's unread samples. If size is smaller than the current fill, the
// oldest samples are kept and the excess is dropped.
func (b *Buffer) Resized(size int) *Buffer {
	nb := New(size)
	keep := min(b.fill, nb.Size())
	tmp := make([]float64, keep)
	b.Peek(tmp)
	nb.Write(tmp)
	return nb
}

// Reset discards all buffered samples.
func (b *Buffer) Reset() {
	b.head = 0
	b.fill = 0
}

func (b *Buffer) advance(n int) {
	b.head = (b.head + n) % len(b.data)
	b.fill -= n
}
