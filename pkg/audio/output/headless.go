// ABOUTME: Headless platform backend for machines without an audio device
// ABOUTME: A ticker goroutine consumes one period per tick at the stream's real rate
package output

import (
	"sync"
	"time"
)

// Headless consumes queued audio on a timer and discards it
type Headless struct {
	props Properties
}

// NewHeadless creates a headless platform
func NewHeadless(opts PlatformOptions) *Headless {
	return &Headless{
		props: Properties{
			APILevel:        opts.APILevel,
			FramesPerBuffer: opts.FramesPerBuffer,
		},
	}
}

func (h *Headless) Name() string           { return "headless" }
func (h *Headless) Properties() Properties { return h.props }

func (h *Headless) CreateEngine() (Engine, error) {
	frames := h.props.FramesPerBuffer
	if frames <= 0 {
		frames = DefaultFramesPerBuffer
	}
	return &headlessEngine{framesPerPeriod: frames}, nil
}

type headlessEngine struct {
	framesPerPeriod int
}

func (e *headlessEngine) CreateOutputMix() (OutputMix, error) {
	return nopMix{}, nil
}

func (e *headlessEngine) CreatePlayer(src DataSource, sink DataSink) (Player, error) {
	if src.Format.BitsPerSample != 16 || src.Format.Channels < 1 || src.Format.SampleRate() <= 0 {
		return nil, ResultContentUnsupported
	}
	if sink.OutputMix == nil {
		return nil, ResultParameterInvalid
	}

	period := time.Duration(e.framesPerPeriod) * time.Second / time.Duration(src.Format.SampleRate())
	return &headlessPlayer{
		queue:   newPullQueue(src.QueueSlots),
		period:  period,
		scratch: make([]byte, e.framesPerPeriod*src.Format.BytesPerFrame()),
	}, nil
}

func (e *headlessEngine) Destroy() {}

type headlessPlayer struct {
	queue   *pullQueue
	period  time.Duration
	scratch []byte

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (p *headlessPlayer) PlayControl() (PlayControl, error) { return p, nil }
func (p *headlessPlayer) BufferQueue() (BufferQueue, error) { return p.queue, nil }

func (p *headlessPlayer) SetPlayState(state PlayState) error {
	switch state {
	case PlayStatePlaying:
		p.start()
	case PlayStatePaused, PlayStateStopped:
		p.halt()
	default:
		return ResultParameterInvalid
	}
	return nil
}

func (p *headlessPlayer) start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done)
}

// halt stops the consumer and waits for it so no pull outlives the call
func (p *headlessPlayer) halt() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (p *headlessPlayer) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.queue.pull(p.scratch)
		}
	}
}

func (p *headlessPlayer) Destroy() {
	p.halt()
	p.queue.close()
}
