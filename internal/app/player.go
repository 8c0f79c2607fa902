// ABOUTME: Main player application orchestration
// ABOUTME: Wires config, platform backend, output stream, sample source, metrics and UI commands
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Resonate-Protocol/lowlat/internal/config"
	"github.com/Resonate-Protocol/lowlat/internal/logging"
	"github.com/Resonate-Protocol/lowlat/internal/ui"
	"github.com/Resonate-Protocol/lowlat/pkg/audio"
	"github.com/Resonate-Protocol/lowlat/pkg/audio/output"
	"github.com/Resonate-Protocol/lowlat/pkg/audio/source"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrEngineUnavailable is returned by New when the backend could not realize an output mix
var ErrEngineUnavailable = errors.New("audio engine unavailable")

// Player represents the main player application
type Player struct {
	config   config.Config
	platform output.Platform
	stream   *output.Stream
	logger   zerolog.Logger

	src        source.Source
	prefetcher *source.Prefetcher
	producer   output.SampleProducer
	format     audio.Format

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// New creates the platform, engine and sample source. reg may be nil.
func New(cfg config.Config, reg prometheus.Registerer) (*Player, error) {
	platform, err := output.NewPlatform(cfg.Backend, output.PlatformOptions{
		APILevel:        cfg.APILevel,
		FramesPerBuffer: cfg.FramesPerBuffer,
	})
	if err != nil {
		return nil, err
	}
	return NewWithPlatform(cfg, platform, reg)
}

// NewWithPlatform is New with an explicit platform
func NewWithPlatform(cfg config.Config, platform output.Platform, reg prometheus.Registerer) (*Player, error) {
	logger := logging.Component("player")

	var metrics *output.Metrics
	if reg != nil {
		metrics = output.NewMetrics(reg)
	}

	stream := output.NewStream(platform, output.EngineConfig{
		FallbackFramesPerBuffer: cfg.FallbackFramesPerBuffer,
		Metrics:                 metrics,
	})
	if !stream.Valid() {
		stream.Shutdown()
		return nil, fmt.Errorf("%w: backend %s", ErrEngineUnavailable, platform.Name())
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		config:   cfg,
		platform: platform,
		stream:   stream,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := p.openSource(); err != nil {
		cancel()
		stream.Shutdown()
		return nil, err
	}

	if reg != nil {
		p.registerMetrics(reg)
	}

	logger.Info().
		Str("backend", platform.Name()).
		Int("framesPerBuffer", stream.FramesPerBuffer()).
		Str("source", p.src.Title()).
		Msg("player ready")
	return p, nil
}

// openSource picks the producer. Tones render in place; files go through a prefetcher.
func (p *Player) openSource() error {
	if p.config.Source.Path == "" {
		tone := source.NewToneSource(p.config.SampleRate, p.config.Channels, p.config.Source.ToneHz)
		p.src = tone
		p.producer = tone.Fill
		p.format = tone.Format()
		return nil
	}

	src, err := source.Open(p.config.Source.Path, p.config.Source.Loop)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	if p.config.Source.Resample {
		src = source.Resample(src, p.config.SampleRate)
	}

	pf := source.NewPrefetcher(src, time.Duration(p.config.Source.PrefetchMS)*time.Millisecond)
	pf.Start(p.ctx)

	p.src = src
	p.prefetcher = pf
	p.producer = pf.Fill
	p.format = pf.Format()
	return nil
}

func (p *Player) registerMetrics(reg prometheus.Registerer) {
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lowlat_output_session_underruns",
		Help: "Device periods rendered as silence in the current session",
	}, func() float64 {
		return float64(p.stream.Stats().Underruns)
	})
	if p.prefetcher != nil {
		f.NewCounterFunc(prometheus.CounterOpts{
			Name: "lowlat_source_underruns_total",
			Help: "Buffer fills that ran ahead of the decoder",
		}, func() float64 {
			return float64(p.prefetcher.Underruns())
		})
	}
}

// Open starts a stream session for the source's format
func (p *Player) Open() error {
	return p.stream.Open(output.StreamConfig{
		Format:          audio.PCM16(p.format.SampleRate, p.format.Channels),
		OnSamplesNeeded: p.producer,
		StartPlaying:    p.config.StartPlaying,
	})
}

// TogglePlay pauses a playing stream and resumes a paused one
func (p *Player) TogglePlay() {
	if p.stream.IsPlaying() {
		p.stream.Pause()
		return
	}
	p.stream.Play()
}

// Flush discards the queued buffer and any prefetched audio, leaving the stream paused
func (p *Player) Flush() {
	p.stream.Flush()
	if p.prefetcher != nil {
		p.prefetcher.Reset()
	}
}

// Reopen closes an open stream or opens a closed one
func (p *Player) Reopen() error {
	if p.stream.IsOpen() {
		p.stream.Close()
		return nil
	}
	return p.Open()
}

// Handle applies a UI command
func (p *Player) Handle(cmd ui.Command) {
	p.logger.Debug().Stringer("command", cmd).Msg("handling command")

	switch cmd {
	case ui.CommandTogglePlay:
		p.TogglePlay()
	case ui.CommandFlush:
		p.Flush()
	case ui.CommandReopen:
		if err := p.Reopen(); err != nil {
			p.logger.Error().Err(err).Msg("reopen failed")
		}
	}
}

// Status returns a snapshot for the UI
func (p *Player) Status() ui.StatusMsg {
	st := p.stream.Stats()
	msg := ui.StatusMsg{
		Backend:         p.platform.Name(),
		Valid:           p.stream.Valid(),
		Open:            st.Open,
		Playing:         st.Playing,
		Queued:          st.BufferQueued,
		SessionID:       p.stream.SessionID(),
		Codec:           p.format.Codec,
		SampleRate:      p.format.SampleRate,
		Channels:        p.format.Channels,
		BufferBytes:     st.BufferBytes,
		Title:           p.src.Title(),
		Submitted:       st.BuffersSubmitted,
		EnqueueFailures: st.EnqueueFailures,
		Underruns:       st.Underruns,
	}
	if p.prefetcher != nil {
		msg.SourceUnderruns = p.prefetcher.Underruns()
		msg.Buffered = p.prefetcher.Buffered()
	}
	return msg
}

// Run applies commands and publishes status until ctx is done or the user quits.
// controls and update may be nil.
func (p *Player) Run(ctx context.Context, controls *ui.Controls, update func(ui.StatusMsg)) {
	var commands <-chan ui.Command
	var quit <-chan struct{}
	if controls != nil {
		commands = controls.Commands
		quit = controls.Quit
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	// Collect runtime stats less often to avoid GC pauses
	runtimeTicker := time.NewTicker(2 * time.Second)
	defer runtimeTicker.Stop()

	var goroutines int
	var memAlloc, memSys uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			p.logger.Info().Msg("received quit signal from TUI")
			return
		case cmd := <-commands:
			p.Handle(cmd)
		case <-runtimeTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			goroutines = runtime.NumGoroutine()
			memAlloc = m.Alloc
			memSys = m.Sys
		case <-ticker.C:
			if update == nil {
				continue
			}
			msg := p.Status()
			msg.Goroutines = goroutines
			msg.MemAlloc = memAlloc
			msg.MemSys = memSys
			update(msg)
		}
	}
}

// Close ends the session, stops decoding and releases the engine
func (p *Player) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.stream.Close()
		p.cancel()
		if p.prefetcher != nil {
			p.prefetcher.Stop()
		}
		err = p.src.Close()
		p.stream.Shutdown()
		p.logger.Info().Msg("player stopped")
	})
	return err
}
