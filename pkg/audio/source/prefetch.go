// ABOUTME: Background decoder feeding a ring buffer for the audio callback
// ABOUTME: Fill is a non-blocking sample producer that renders silence on underrun
package source

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/lowlat/internal/logging"
	"github.com/Resonate-Protocol/lowlat/pkg/audio"
	"github.com/rs/zerolog"
)

const (
	// DefaultPrefetch is the amount of decoded audio kept ahead of playback
	DefaultPrefetch = 200 * time.Millisecond

	chunkDuration = 10 * time.Millisecond
)

// Prefetcher decodes a Source on its own goroutine so the sample producer
// never touches the decoder.
type Prefetcher struct {
	src    Source
	format audio.Format
	ring   *RingBuffer
	logger zerolog.Logger

	chunk      []int16
	chunkBytes []byte

	underruns atomic.Uint64
	exhausted atomic.Bool
	wake      chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPrefetcher sizes the ring buffer to hold budget worth of audio
func NewPrefetcher(src Source, budget time.Duration) *Prefetcher {
	if budget <= 0 {
		budget = DefaultPrefetch
	}
	f := src.Format()

	chunkFrames := max(f.DurationToFrames(chunkDuration), 1)
	chunkSamples := chunkFrames * f.Channels
	ringBytes := max(f.FramesToBytes(f.DurationToFrames(budget)), 2*chunkSamples*2)

	return &Prefetcher{
		src:        src,
		format:     f,
		ring:       NewRingBuffer(ringBytes),
		logger:     logging.Component("prefetch").With().Str("title", src.Title()).Logger(),
		chunk:      make([]int16, chunkSamples),
		chunkBytes: make([]byte, chunkSamples*2),
		wake:       make(chan struct{}, 1),
	}
}

// Format returns the format of the bytes Fill produces
func (p *Prefetcher) Format() audio.Format { return p.format }

// Start launches the decode goroutine. It runs until ctx is done or Stop is called.
func (p *Prefetcher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop ends the decode goroutine and waits for it
func (p *Prefetcher) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Prefetcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(chunkDuration)
	defer ticker.Stop()

	for {
		if err := p.top(); err != nil {
			if errors.Is(err, io.EOF) {
				p.logger.Info().Msg("source exhausted")
			} else {
				p.logger.Error().Err(err).Msg("decode failed")
			}
			p.exhausted.Store(true)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		case <-ticker.C:
		}
	}
}

// top decodes until the ring buffer cannot take another chunk
func (p *Prefetcher) top() error {
	for p.ring.Free() >= len(p.chunkBytes) {
		n, err := p.src.Read(p.chunk)
		if n > 0 {
			w := audio.PutInt16LE(p.chunkBytes, p.chunk[:n])
			p.ring.Write(p.chunkBytes[:w])
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

// Fill is a SampleProducer. It copies buffered audio into buf and zero-fills
// whatever is missing.
func (p *Prefetcher) Fill(buf []byte) {
	n := p.ring.Read(buf)
	if n < len(buf) {
		clear(buf[n:])
		if !p.exhausted.Load() {
			p.underruns.Add(1)
		}
	}

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Underruns returns how many fills came up short while the source still had data
func (p *Prefetcher) Underruns() uint64 {
	return p.underruns.Load()
}

// Exhausted reports whether the source has ended
func (p *Prefetcher) Exhausted() bool {
	return p.exhausted.Load()
}

// Buffered returns the amount of decoded audio waiting for playback
func (p *Prefetcher) Buffered() time.Duration {
	return p.format.Duration(p.format.BytesToFrames(p.ring.Available()))
}

// Reset drops buffered audio so playback resumes with freshly decoded samples
func (p *Prefetcher) Reset() {
	p.ring.Reset()
}
