// ABOUTME: Malgo-based platform backend
// ABOUTME: Uses miniaudio via malgo; the device data callback drains a pull queue
package output

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// Malgo realizes the platform boundary on top of miniaudio
type Malgo struct {
	props Properties
}

// NewMalgo creates a malgo platform
func NewMalgo(opts PlatformOptions) *Malgo {
	return &Malgo{
		props: Properties{
			APILevel:        opts.APILevel,
			FramesPerBuffer: opts.FramesPerBuffer,
		},
	}
}

func (m *Malgo) Name() string           { return "malgo" }
func (m *Malgo) Properties() Properties { return m.props }

// CreateEngine initializes a malgo context
func (m *Malgo) CreateEngine() (Engine, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return &malgoEngine{ctx: ctx, framesPerBuffer: m.props.FramesPerBuffer}, nil
}

type malgoEngine struct {
	ctx             *malgo.AllocatedContext
	framesPerBuffer int
}

func (e *malgoEngine) CreateOutputMix() (OutputMix, error) {
	return nopMix{}, nil
}

func (e *malgoEngine) CreatePlayer(src DataSource, sink DataSink) (Player, error) {
	if src.Format.BitsPerSample != 16 || !src.Format.LittleEndian {
		return nil, ResultContentUnsupported
	}
	if sink.OutputMix == nil {
		return nil, ResultParameterInvalid
	}

	q := newPullQueue(src.QueueSlots)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(src.Format.Channels)
	deviceConfig.SampleRate = uint32(src.Format.SampleRate())
	deviceConfig.Alsa.NoMMap = 1
	if e.framesPerBuffer > 0 {
		deviceConfig.PeriodSizeInFrames = uint32(e.framesPerBuffer)
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			q.pull(pOutputSample)
		},
	}

	device, err := malgo.InitDevice(e.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return &malgoPlayer{device: device, queue: q}, nil
}

func (e *malgoEngine) Destroy() {
	_ = e.ctx.Uninit()
	e.ctx.Free()
}

type malgoPlayer struct {
	device *malgo.Device
	queue  *pullQueue
}

func (p *malgoPlayer) PlayControl() (PlayControl, error) { return p, nil }
func (p *malgoPlayer) BufferQueue() (BufferQueue, error) { return p.queue, nil }

func (p *malgoPlayer) SetPlayState(state PlayState) error {
	switch state {
	case PlayStatePlaying:
		if p.device.IsStarted() {
			return nil
		}
		return p.device.Start()
	case PlayStatePaused, PlayStateStopped:
		if !p.device.IsStarted() {
			return nil
		}
		return p.device.Stop()
	default:
		return ResultParameterInvalid
	}
}

func (p *malgoPlayer) Destroy() {
	p.queue.close()
	p.device.Uninit()
}
