package kfmt

import "io"

// ringBufferSize defines size of the ring buffer that buffers early Printf
// output. It can hold a full screen of diagnostics from the boot sequence.
// The ring buffer size must always be a power of 2.
const ringBufferSize = 2048

// ringBuffer captures the output of Printf before an output sink is attached.
// When full, new writes overwrite the oldest buffered bytes.
type ringBuffer struct {
	buffer [ringBufferSize]byte

	// start is the index of the oldest buffered byte and count the
	// number of buffered bytes.
	start, count int
}

// Write writes len(p) bytes from p to the ringBuffer.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.start+rb.count)&(ringBufferSize-1)] = b
		if rb.count == ringBufferSize {
			rb.start = (rb.start + 1) & (ringBufferSize - 1)
			continue
		}
		rb.count++
	}

	return len(p), nil
}

// Read reads up to len(p) bytes into p. It returns the number of bytes read (0
// <= n <= len(p)) and io.EOF once the buffer is drained.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.count == 0 {
		return 0, io.EOF
	}

	// Copy up to the end of the backing array; callers loop for the rest.
	n := ringBufferSize - rb.start
	if n > rb.count {
		n = rb.count
	}
	n = copy(p, rb.buffer[rb.start:rb.start+n])

	rb.start = (rb.start + n) & (ringBufferSize - 1)
	rb.count -= n
	return n, nil
}
