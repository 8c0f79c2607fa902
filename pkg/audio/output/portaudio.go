//go:build portaudio

// ABOUTME: PortAudio platform backend
// ABOUTME: Callback stream on int16 frames draining a pull queue
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/lowlat/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio realizes the platform boundary on top of PortAudio
type PortAudio struct {
	props Properties
}

// NewPortAudio creates a PortAudio platform
func NewPortAudio(opts PlatformOptions) Platform {
	return &PortAudio{
		props: Properties{
			APILevel:        opts.APILevel,
			FramesPerBuffer: opts.FramesPerBuffer,
		},
	}
}

func (p *PortAudio) Name() string           { return "portaudio" }
func (p *PortAudio) Properties() Properties { return p.props }

// CreateEngine initializes PortAudio
func (p *PortAudio) CreateEngine() (Engine, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	frames := p.props.FramesPerBuffer
	if frames <= 0 {
		frames = DefaultFramesPerBuffer
	}
	return &portAudioEngine{framesPerBuffer: frames}, nil
}

type portAudioEngine struct {
	framesPerBuffer int
}

func (e *portAudioEngine) CreateOutputMix() (OutputMix, error) {
	return nopMix{}, nil
}

func (e *portAudioEngine) CreatePlayer(src DataSource, sink DataSink) (Player, error) {
	if src.Format.BitsPerSample != 16 || !src.Format.LittleEndian {
		return nil, ResultContentUnsupported
	}
	if sink.OutputMix == nil {
		return nil, ResultParameterInvalid
	}

	q := newPullQueue(src.QueueSlots)
	scratch := make([]byte, e.framesPerBuffer*src.Format.BytesPerFrame())

	stream, err := portaudio.OpenDefaultStream(0, src.Format.Channels, float64(src.Format.SampleRate()), e.framesPerBuffer,
		func(out []int16) {
			n := len(out) * 2
			if n > len(scratch) {
				n = len(scratch)
			}
			q.pull(scratch[:n])
			for i := 0; i < n/2; i++ {
				out[i] = audio.Int16LE(scratch, i)
			}
		})
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}

	return &portAudioPlayer{stream: stream, queue: q}, nil
}

func (e *portAudioEngine) Destroy() {
	_ = portaudio.Terminate()
}

type portAudioPlayer struct {
	stream  *portaudio.Stream
	queue   *pullQueue
	started bool
}

func (p *portAudioPlayer) PlayControl() (PlayControl, error) { return p, nil }
func (p *portAudioPlayer) BufferQueue() (BufferQueue, error) { return p.queue, nil }

func (p *portAudioPlayer) SetPlayState(state PlayState) error {
	switch state {
	case PlayStatePlaying:
		if p.started {
			return nil
		}
		if err := p.stream.Start(); err != nil {
			return err
		}
		p.started = true
	case PlayStatePaused, PlayStateStopped:
		if !p.started {
			return nil
		}
		if err := p.stream.Stop(); err != nil {
			return err
		}
		p.started = false
	default:
		return ResultParameterInvalid
	}
	return nil
}

func (p *portAudioPlayer) Destroy() {
	p.queue.close()
	if p.started {
		_ = p.stream.Stop()
		p.started = false
	}
	_ = p.stream.Close()
}
