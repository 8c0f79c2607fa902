// ABOUTME: Oto-based platform backend
// ABOUTME: One process-wide oto context; each player reads from a pull queue
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto realizes the platform boundary on top of the oto library.
// oto allows a single context per process, so every player must share the
// first player's sample rate and channel count.
type Oto struct {
	props Properties

	mu         sync.Mutex
	ctx        *oto.Context
	sampleRate int
	channels   int
	suspended  bool
}

// NewOto creates an oto platform
func NewOto(opts PlatformOptions) *Oto {
	return &Oto{
		props: Properties{
			APILevel:        opts.APILevel,
			FramesPerBuffer: opts.FramesPerBuffer,
		},
	}
}

func (o *Oto) Name() string           { return "oto" }
func (o *Oto) Properties() Properties { return o.props }

// CreateEngine never fails; the oto context is created with the first player
func (o *Oto) CreateEngine() (Engine, error) {
	return &otoEngine{platform: o, framesPerBuffer: o.props.FramesPerBuffer}, nil
}

// context returns the shared oto context, creating or resuming it
func (o *Oto) context(desc PCMDescriptor) (*oto.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx != nil {
		if o.sampleRate != desc.SampleRate() || o.channels != desc.Channels {
			return nil, fmt.Errorf("oto context already running at %dHz/%dch: %w",
				o.sampleRate, o.channels, ResultContentUnsupported)
		}
		if o.suspended {
			if err := o.ctx.Resume(); err != nil {
				return nil, fmt.Errorf("failed to resume oto context: %w", err)
			}
			o.suspended = false
		}
		return o.ctx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   desc.SampleRate(),
		ChannelCount: desc.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	if o.props.FramesPerBuffer > 0 {
		op.BufferSize = time.Duration(o.props.FramesPerBuffer) * time.Second / time.Duration(desc.SampleRate())
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	o.ctx = ctx
	o.sampleRate = desc.SampleRate()
	o.channels = desc.Channels
	return ctx, nil
}

func (o *Oto) suspend() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx != nil && !o.suspended {
		_ = o.ctx.Suspend()
		o.suspended = true
	}
}

type otoEngine struct {
	platform        *Oto
	framesPerBuffer int
}

func (e *otoEngine) CreateOutputMix() (OutputMix, error) {
	return nopMix{}, nil
}

func (e *otoEngine) CreatePlayer(src DataSource, sink DataSink) (Player, error) {
	if src.Format.BitsPerSample != 16 || !src.Format.LittleEndian {
		return nil, ResultContentUnsupported
	}
	if sink.OutputMix == nil {
		return nil, ResultParameterInvalid
	}

	ctx, err := e.platform.context(src.Format)
	if err != nil {
		return nil, err
	}

	open := func(r io.Reader) otoVoice { return ctx.NewPlayer(r) }
	return newOtoPlayer(src.QueueSlots, otoBufferBytes(e.framesPerBuffer, src.Format), open), nil
}

// Destroy suspends the shared context; oto cannot close it
func (e *otoEngine) Destroy() {
	e.platform.suspend()
}

// otoBufferBytes sizes oto's per-player read-ahead to one period.
// oto defaults to half a second.
func otoBufferBytes(framesPerBuffer int, desc PCMDescriptor) int {
	if framesPerBuffer <= 0 {
		framesPerBuffer = DefaultFramesPerBuffer
	}
	return framesPerBuffer * desc.BytesPerFrame()
}

// otoVoice is the part of *oto.Player the backend drives
type otoVoice interface {
	Play()
	Pause()
	SetBufferSize(bufferSize int)
	Close() error
}

// otoPlayer is both the io.Reader oto pulls from and the engine's buffer queue
type otoPlayer struct {
	queue       *pullQueue
	bufferBytes int
	open        func(io.Reader) otoVoice

	mu      sync.Mutex
	voice   otoVoice
	playing bool
}

func newOtoPlayer(slots, bufferBytes int, open func(io.Reader) otoVoice) *otoPlayer {
	p := &otoPlayer{
		queue:       newPullQueue(slots),
		bufferBytes: bufferBytes,
		open:        open,
	}
	p.voice = p.newVoice()
	return p
}

func (p *otoPlayer) newVoice() otoVoice {
	v := p.open(p)
	v.SetBufferSize(p.bufferBytes)
	return v
}

// Read is called from oto's mixing goroutine
func (p *otoPlayer) Read(b []byte) (int, error) {
	p.queue.pull(b)
	return len(b), nil
}

func (p *otoPlayer) PlayControl() (PlayControl, error) { return p, nil }
func (p *otoPlayer) BufferQueue() (BufferQueue, error) { return p, nil }

func (p *otoPlayer) SetPlayState(state PlayState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch state {
	case PlayStatePlaying:
		p.voice.Play()
		p.playing = true
	case PlayStatePaused, PlayStateStopped:
		p.voice.Pause()
		p.playing = false
	default:
		return ResultParameterInvalid
	}
	return nil
}

func (p *otoPlayer) Enqueue(buf []byte) error        { return p.queue.Enqueue(buf) }
func (p *otoPlayer) RegisterCallback(fn func()) error { return p.queue.RegisterCallback(fn) }

// Clear drops queued buffers and the audio oto has already read ahead.
// oto has no way to discard a player's buffer, so the player is replaced.
func (p *otoPlayer) Clear() error {
	if err := p.queue.Clear(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.voice.Close()
	p.voice = p.newVoice()
	if p.playing {
		p.voice.Play()
	}
	return nil
}

func (p *otoPlayer) Destroy() {
	p.queue.close()

	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.voice.Close()
}
