// ABOUTME: Platform audio service boundary consumed by the output stream engine
// ABOUTME: Engine, output mix, player, play control and buffer queue interfaces plus descriptors
package output

import "fmt"

// Platform is a platform audio service able to realize an engine.
type Platform interface {
	// Name identifies the backend ("oto", "malgo", "portaudio", "headless")
	Name() string

	// Properties reports the platform version and preferred buffer size
	Properties() Properties

	// CreateEngine realizes the engine object
	CreateEngine() (Engine, error)
}

// Properties are the values a platform reports about itself.
type Properties struct {
	// APILevel is the platform revision. Zero means the platform is not versioned.
	APILevel int

	// FramesPerBuffer is the preferred number of frames per period. Zero means unknown.
	FramesPerBuffer int
}

// Engine owns the output mix and creates players.
type Engine interface {
	CreateOutputMix() (OutputMix, error)
	CreatePlayer(src DataSource, sink DataSink) (Player, error)
	Destroy()
}

// OutputMix is the sink that players render into.
type OutputMix interface {
	Destroy()
}

// Player is a realized audio player object.
type Player interface {
	PlayControl() (PlayControl, error)
	BufferQueue() (BufferQueue, error)
	Destroy()
}

// PlayControl switches a player between play states.
type PlayControl interface {
	SetPlayState(state PlayState) error
}

// BufferQueue holds fixed-size buffers pending playback and drains them in order.
//
// The registered callback is invoked on the platform's audio thread each time
// a buffer has been fully consumed. It must not block. It may run
// concurrently with Clear, or from inside it, but not for a cleared buffer
// after Clear has returned.
type BufferQueue interface {
	Enqueue(buf []byte) error
	Clear() error
	RegisterCallback(fn func()) error
}

// PlayState is a player's transport state
type PlayState int

const (
	PlayStateStopped PlayState = iota + 1
	PlayStatePaused
	PlayStatePlaying
)

func (s PlayState) String() string {
	switch s {
	case PlayStateStopped:
		return "stopped"
	case PlayStatePaused:
		return "paused"
	case PlayStatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("PlayState(%d)", int(s))
	}
}

// ChannelMask selects speaker positions
type ChannelMask uint32

const (
	SpeakerFrontLeft   ChannelMask = 0x1
	SpeakerFrontRight  ChannelMask = 0x2
	SpeakerFrontCenter ChannelMask = 0x4
)

// PCMDescriptor describes the PCM layout handed to the platform.
type PCMDescriptor struct {
	Channels          int
	SampleRateMilliHz uint32
	BitsPerSample     int
	ContainerSize     int
	ChannelMask       ChannelMask
	LittleEndian      bool
}

// SampleRate returns the rate in Hz
func (d PCMDescriptor) SampleRate() int {
	return int(d.SampleRateMilliHz / 1000)
}

// BytesPerFrame returns the container size of one frame
func (d PCMDescriptor) BytesPerFrame() int {
	return d.ContainerSize / 8 * d.Channels
}

// DataSource is a buffer-queue source with a fixed number of slots.
type DataSource struct {
	QueueSlots int
	Format     PCMDescriptor
}

// DataSink routes a player into an output mix.
type DataSink struct {
	OutputMix OutputMix
}

// PlatformOptions configure a backend created by NewPlatform.
type PlatformOptions struct {
	APILevel        int
	FramesPerBuffer int
}

// NewPlatform creates the backend with the given name. Empty selects oto.
func NewPlatform(name string, opts PlatformOptions) (Platform, error) {
	switch name {
	case "", "oto":
		return NewOto(opts), nil
	case "malgo":
		return NewMalgo(opts), nil
	case "portaudio":
		return NewPortAudio(opts), nil
	case "headless":
		return NewHeadless(opts), nil
	default:
		return nil, fmt.Errorf("unknown audio backend: %s (supported: oto, malgo, portaudio, headless)", name)
	}
}

// nopMix is the output mix of backends whose device owns mixing.
type nopMix struct{}

func (nopMix) Destroy() {}
