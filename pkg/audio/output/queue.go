// ABOUTME: Pull-driven buffer queue shared by all device backends
// ABOUTME: Device callbacks drain submitted buffers in order and signal each consumed buffer
package output

import (
	"sync"
	"sync/atomic"
)

// pullQueue adapts a callback-driven device to the BufferQueue contract.
// The device side calls pull from its audio thread; buffers are drained in
// submission order and the registered callback fires once per drained buffer.
type pullQueue struct {
	// deliverMu is held from draining a buffer until its callback returns,
	// so Clear never returns with a notification for a cleared buffer pending
	deliverMu sync.Mutex

	mu       sync.Mutex
	bufs     [][]byte
	slots    int
	pos      int // read offset into bufs[0]
	callback func()
	closed   bool

	consumed  atomic.Uint64 // buffers fully drained
	underruns atomic.Uint64 // pulls that had to render silence
}

func newPullQueue(slots int) *pullQueue {
	if slots < 1 {
		slots = 1
	}
	return &pullQueue{
		bufs:  make([][]byte, 0, slots),
		slots: slots,
	}
}

// Enqueue submits a buffer. The queue keeps a reference until it is consumed.
func (q *pullQueue) Enqueue(buf []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ResultPreconditionsViolated
	}
	if len(buf) == 0 {
		return ResultParameterInvalid
	}
	if len(q.bufs) >= q.slots {
		return ResultBufferInsufficient
	}
	q.bufs = append(q.bufs, buf)
	return nil
}

// Clear drops all pending buffers without signalling them
func (q *pullQueue) Clear() error {
	q.deliverMu.Lock()
	defer q.deliverMu.Unlock()

	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.bufs {
		q.bufs[i] = nil
	}
	q.bufs = q.bufs[:0]
	q.pos = 0
	return nil
}

// RegisterCallback sets the consumed notification
func (q *pullQueue) RegisterCallback(fn func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ResultPreconditionsViolated
	}
	q.callback = fn
	return nil
}

// Underruns returns how many pulls rendered silence
func (q *pullQueue) Underruns() uint64 {
	return q.underruns.Load()
}

// Consumed returns how many buffers were fully drained
func (q *pullQueue) Consumed() uint64 {
	return q.consumed.Load()
}

// pending returns the number of submitted buffers not yet drained
func (q *pullQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.bufs)
}

// close detaches the callback and drops pending buffers. Later enqueues fail.
func (q *pullQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.callback = nil
	for i := range q.bufs {
		q.bufs[i] = nil
	}
	q.bufs = q.bufs[:0]
	q.pos = 0
}

// pull fills dst from the queue and zero-fills whatever the queue could not
// supply. It returns the number of bytes taken from submitted buffers.
// The consumed callback runs without mu held so it may enqueue again.
func (q *pullQueue) pull(dst []byte) int {
	n := 0
	for n < len(dst) {
		q.deliverMu.Lock()
		q.mu.Lock()
		if len(q.bufs) == 0 {
			q.mu.Unlock()
			q.deliverMu.Unlock()
			break
		}

		head := q.bufs[0]
		c := copy(dst[n:], head[q.pos:])
		n += c
		q.pos += c

		var cb func()
		if q.pos >= len(head) {
			copy(q.bufs, q.bufs[1:])
			q.bufs[len(q.bufs)-1] = nil
			q.bufs = q.bufs[:len(q.bufs)-1]
			q.pos = 0
			cb = q.callback
			q.consumed.Add(1)
		}
		q.mu.Unlock()

		if cb != nil {
			cb()
		}
		q.deliverMu.Unlock()
	}

	if n < len(dst) {
		clear(dst[n:])
		q.underruns.Add(1)
	}
	return n
}
