// ABOUTME: Playback session state and the buffer fill-and-submit sequence
// ABOUTME: Holds the single owned buffer and the callback back-reference cleared on close
package output

import (
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/lowlat/pkg/audio"
	"github.com/rs/zerolog"
)

// session is one open-to-close lifetime of a stream. Fields other than the
// atomics are fixed at open and never written afterwards.
type session struct {
	id       string
	format   audio.Format
	player   Player
	control  PlayControl
	queue    BufferQueue
	buf      []byte
	producer SampleProducer
	ref      *sessionRef
	logger   zerolog.Logger
	stats    *streamStats
	metrics  *Metrics

	queued  atomic.Bool
	playing atomic.Bool

	// fillMu serializes fill-and-submit with the start and end of a clear.
	// Notifications arriving while clearing is set are dropped.
	fillMu   sync.Mutex
	clearing bool
}

// onConsumed handles a consumed notification from the audio thread
func (s *session) onConsumed() {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.clearing {
		return
	}
	s.submit()
}

// prime submits a buffer unless one is already queued
func (s *session) prime() {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.queued.Load() {
		return
	}
	s.submit()
}

// clear empties the platform queue. The platform call runs without fillMu so
// a queue that waits for in-flight callbacks cannot deadlock against them.
func (s *session) clear() error {
	s.fillMu.Lock()
	s.clearing = true
	s.fillMu.Unlock()

	err := s.queue.Clear()

	s.fillMu.Lock()
	s.clearing = false
	s.queued.Store(false)
	s.fillMu.Unlock()
	return err
}

// submit runs the producer over the whole buffer and hands it to the platform.
// Callers hold fillMu.
func (s *session) submit() {
	s.producer(s.buf)
	s.queued.Store(true)
	if err := s.queue.Enqueue(s.buf); err != nil {
		s.queued.Store(false)
		s.stats.enqueueFailures.Add(1)
		s.metrics.enqueueFailed()
		s.logger.Warn().Err(err).Msg("Enqueue failed")
		return
	}
	s.stats.buffersSubmitted.Add(1)
	s.metrics.bufferSubmitted()
}

// sessionRef is the only path from the platform callback to a session.
// Close clears it before the player is destroyed.
type sessionRef struct {
	p atomic.Pointer[session]
}

func newSessionRef(s *session) *sessionRef {
	r := &sessionRef{}
	r.p.Store(s)
	return r
}

// onBufferConsumed is registered with the platform buffer queue
func (r *sessionRef) onBufferConsumed() {
	s := r.p.Load()
	if s == nil {
		return
	}
	s.onConsumed()
}

func (r *sessionRef) detach() {
	r.p.Store(nil)
}

// streamStats are counters kept across sessions
type streamStats struct {
	sessionsOpened   atomic.Uint64
	buffersSubmitted atomic.Uint64
	enqueueFailures  atomic.Uint64
}

// resources releases acquired platform objects in reverse order of acquisition.
type resources struct {
	release []func()
}

func (r *resources) push(fn func()) {
	r.release = append(r.release, fn)
}

func (r *resources) releaseAll() {
	for i := len(r.release) - 1; i >= 0; i-- {
		r.release[i]()
	}
	r.release = nil
}
