// Package ringbuffer provides a single-owner FIFO for streaming audio
// samples, with non-destructive peeks for overlapped analysis.
package ringbuffer
