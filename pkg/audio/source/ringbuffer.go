// ABOUTME: Thread-safe circular byte buffer
// ABOUTME: Carries decoded PCM from the prefetch goroutine to the audio callback
package source

import "sync"

// RingBuffer provides a thread-safe circular buffer for PCM bytes
type RingBuffer struct {
	buffer   []byte
	readPos  int
	writePos int
	size     int
	count    int // bytes currently in buffer
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer with given capacity in bytes
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]byte, capacity),
		size:   capacity,
	}
}

// Write adds as much of p as fits and returns the number of bytes written
func (rb *RingBuffer) Write(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(len(p), rb.size-rb.count)
	first := min(n, rb.size-rb.writePos)
	copy(rb.buffer[rb.writePos:], p[:first])
	copy(rb.buffer, p[first:n])
	rb.writePos = (rb.writePos + n) % rb.size
	rb.count += n
	return n
}

// Read moves up to len(p) bytes into p and returns the number read
func (rb *RingBuffer) Read(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(len(p), rb.count)
	first := min(n, rb.size-rb.readPos)
	copy(p, rb.buffer[rb.readPos:rb.readPos+first])
	copy(p[first:n], rb.buffer[:n-first])
	rb.readPos = (rb.readPos + n) % rb.size
	rb.count -= n
	return n
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of bytes that can be written
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Reset discards all buffered bytes
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.readPos = 0
	rb.writePos = 0
	rb.count = 0
}
