// ABOUTME: Low-latency output stream engine over a platform buffer queue
// ABOUTME: Open/play/pause/flush/close lifecycle with a single in-flight buffer
package output

import (
	"fmt"
	"math"
	"sync"

	"github.com/Resonate-Protocol/lowlat/internal/logging"
	"github.com/Resonate-Protocol/lowlat/pkg/audio"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultFramesPerBuffer is used when the platform reports no preferred size.
	// Matches the Oboe library default.
	DefaultFramesPerBuffer = 192

	// Platform revisions below this need two queue slots to reach the
	// low-latency path even though only one buffer is ever queued.
	lowLatencyAPILevel = 18

	// maxSampleRate is the highest rate whose milli-Hz value fits the descriptor
	maxSampleRate = math.MaxUint32 / 1000
)

// SampleProducer fills the whole of buf with 16-bit little-endian PCM.
// It is called on the platform's audio thread and must not block or allocate.
type SampleProducer func(buf []byte)

// StreamConfig is consumed by Open
type StreamConfig struct {
	Format          audio.Format
	OnSamplesNeeded SampleProducer
	StartPlaying    bool
}

// EngineConfig configures NewStream
type EngineConfig struct {
	// FallbackFramesPerBuffer sizes the buffer when the platform reports no
	// preferred size (default: DefaultFramesPerBuffer)
	FallbackFramesPerBuffer int

	// Logger defaults to the "output" component logger
	Logger *zerolog.Logger

	// Metrics is optional
	Metrics *Metrics
}

// Stats is a snapshot of stream state and counters
type Stats struct {
	Open             bool
	Playing          bool
	BufferQueued     bool
	BufferBytes      int
	SessionsOpened   uint64
	BuffersSubmitted uint64
	EnqueueFailures  uint64
	Underruns        uint64
}

// Stream is the output stream engine for one device. At most one session is
// open at a time.
type Stream struct {
	mu sync.Mutex

	platform       Platform
	props          Properties
	engine         Engine
	outMix         OutputMix
	handles        resources
	fallbackFrames int
	logger         zerolog.Logger
	metrics        *Metrics
	stats          streamStats

	session *session
}

// NewStream creates the engine and output mix. Failures are logged and leave
// the stream invalid; check Valid before relying on Open.
func NewStream(p Platform, cfg EngineConfig) *Stream {
	if cfg.FallbackFramesPerBuffer <= 0 {
		cfg.FallbackFramesPerBuffer = DefaultFramesPerBuffer
	}
	logger := logging.Component("output")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	s := &Stream{
		platform:       p,
		props:          p.Properties(),
		fallbackFrames: cfg.FallbackFramesPerBuffer,
		logger:         logger.With().Str("backend", p.Name()).Logger(),
		metrics:        cfg.Metrics,
	}

	s.logger.Debug().Msg("running init")

	engine, err := p.CreateEngine()
	if err != nil {
		s.logger.Error().Err(err).Msg("engine creation failed")
		return s
	}
	s.engine = engine
	s.handles.push(engine.Destroy)

	mix, err := engine.CreateOutputMix()
	if err != nil {
		s.logger.Error().Err(err).Msg("output mix creation failed")
		return s
	}
	s.outMix = mix
	s.handles.push(mix.Destroy)

	return s
}

// Valid reports whether the output mix was created
func (s *Stream) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outMix != nil
}

// FramesPerBuffer returns the period size used for new sessions
func (s *Stream) FramesPerBuffer() int {
	if s.props.FramesPerBuffer > 0 {
		return s.props.FramesPerBuffer
	}
	return s.fallbackFrames
}

// Open starts a session. Opening an open stream is a no-op.
//
// Open panics with ErrUnsupportedFormat unless cfg.Format is 16-bit mono or
// stereo, and panics when cfg.OnSamplesNeeded is nil.
func (s *Stream) Open(cfg StreamConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.logger.Warn().Msg("stream already open")
		return nil
	}
	if s.outMix == nil {
		return fmt.Errorf("%w: output mix unavailable", ErrInvalidState)
	}

	desc := pcmDescriptor(cfg.Format)
	if cfg.OnSamplesNeeded == nil {
		panic("output: Open called with nil OnSamplesNeeded")
	}

	id := uuid.NewString()
	logger := s.logger.With().Str("session", id).Logger()

	bufferBytes := cfg.Format.FramesToBytes(s.FramesPerBuffer())
	buf := make([]byte, bufferBytes)
	slots := queueSlots(s.props.APILevel)

	logger.Info().
		Int("rate", cfg.Format.SampleRate).
		Int("channels", cfg.Format.Channels).
		Int("bufferBytes", bufferBytes).
		Int("queueSlots", slots).
		Msg("creating playback")

	var acquired resources
	fail := func(step string, err error) error {
		acquired.releaseAll()
		s.metrics.openFailed()
		logger.Error().Err(err).Msgf("%s failed", step)
		return fmt.Errorf("%w: %s: %w", ErrDeviceError, step, err)
	}

	player, err := s.engine.CreatePlayer(
		DataSource{QueueSlots: slots, Format: desc},
		DataSink{OutputMix: s.outMix},
	)
	if err != nil {
		return fail("CreateAudioPlayer", err)
	}
	acquired.push(player.Destroy)

	control, err := player.PlayControl()
	if err != nil {
		return fail("GetInterface(play)", err)
	}
	queue, err := player.BufferQueue()
	if err != nil {
		return fail("GetInterface(buffer queue)", err)
	}

	sess := &session{
		id:       id,
		format:   cfg.Format,
		player:   player,
		control:  control,
		queue:    queue,
		buf:      buf,
		producer: cfg.OnSamplesNeeded,
		logger:   logger,
		stats:    &s.stats,
		metrics:  s.metrics,
	}
	sess.ref = newSessionRef(sess)
	acquired.push(sess.ref.detach)

	if err := queue.RegisterCallback(sess.ref.onBufferConsumed); err != nil {
		return fail("RegisterCallback", err)
	}

	s.session = sess
	s.stats.sessionsOpened.Add(1)
	s.metrics.sessionOpened(bufferBytes)
	logger.Info().Msg("stream opened")

	if cfg.StartPlaying {
		s.play()
	}
	return nil
}

// Play starts or resumes playback. Failures are logged and leave the stream paused.
func (s *Stream) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.play()
}

func (s *Stream) play() {
	sess := s.session
	if sess == nil {
		return
	}

	if err := sess.control.SetPlayState(PlayStatePlaying); err != nil {
		s.metrics.playStateFailed()
		sess.logger.Error().Err(err).Msg("SetPlayState(playing) failed")
		return
	}

	sess.logger.Info().Msg("started playback")
	sess.playing.Store(true)
	s.metrics.setPlaying(true)

	// prime the queue so the device has data before it starts consuming
	sess.prime()
}

// Pause stops playback. The stream is considered paused even if the platform
// rejects the transition.
func (s *Stream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pause()
}

func (s *Stream) pause() {
	sess := s.session
	if sess == nil || !sess.playing.Load() {
		return
	}

	sess.logger.Info().Msg("pausing playback")
	if err := sess.control.SetPlayState(PlayStatePaused); err != nil {
		s.metrics.playStateFailed()
		sess.logger.Warn().Err(err).Msg("SetPlayState(paused) failed")
	}
	sess.playing.Store(false)
	s.metrics.setPlaying(false)
}

// Flush pauses and discards any queued buffer without closing the session
func (s *Stream) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session
	if sess == nil {
		return
	}

	sess.logger.Info().Msg("clearing queued samples")
	s.pause()
	if err := sess.clear(); err != nil {
		sess.logger.Warn().Err(err).Msg("Clear failed")
	}
}

// Close ends the session and releases the player and buffer
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.close()
}

func (s *Stream) close() {
	sess := s.session
	if sess == nil {
		s.logger.Debug().Msg("called close when pcm already off")
		return
	}

	sess.logger.Info().Msg("closing pcm")
	sess.playing.Store(false)
	// callbacks already in flight see a nil session from here on
	sess.ref.detach()
	sess.player.Destroy()
	sess.queued.Store(false)
	s.session = nil
	s.metrics.sessionClosed()
}

// Shutdown closes any session and releases the output mix and engine.
// The stream is invalid afterwards.
func (s *Stream) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.close()
	s.handles.releaseAll()
	s.outMix = nil
	s.engine = nil
	s.logger.Debug().Msg("engine released")
}

// IsOpen reports whether a session exists
func (s *Stream) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// IsPlaying reports whether the session is playing
func (s *Stream) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil && s.session.playing.Load()
}

// BufferQueued reports whether a buffer is submitted and not yet consumed
func (s *Stream) BufferQueued() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil && s.session.queued.Load()
}

// BufferBytes returns the session's buffer size, or 0 when closed
func (s *Stream) BufferBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return 0
	}
	return len(s.session.buf)
}

// SessionID returns the id of the open session, or "" when closed
func (s *Stream) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.id
}

// Format returns the open session's format
func (s *Stream) Format() (audio.Format, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return audio.Format{}, false
	}
	return s.session.format, true
}

// Stats returns a snapshot of state and counters
func (s *Stream) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		SessionsOpened:   s.stats.sessionsOpened.Load(),
		BuffersSubmitted: s.stats.buffersSubmitted.Load(),
		EnqueueFailures:  s.stats.enqueueFailures.Load(),
	}
	if sess := s.session; sess != nil {
		st.Open = true
		st.Playing = sess.playing.Load()
		st.BufferQueued = sess.queued.Load()
		st.BufferBytes = len(sess.buf)
		if u, ok := sess.queue.(interface{ Underruns() uint64 }); ok {
			st.Underruns = u.Underruns()
		}
	}
	return st
}

// queueSlots returns the buffer-queue slot count for a platform revision
func queueSlots(apiLevel int) int {
	if apiLevel > 0 && apiLevel < lowLatencyAPILevel {
		return 2
	}
	return 1
}

// pcmDescriptor builds the platform PCM layout. Anything other than 16-bit
// mono or stereo is a caller bug.
func pcmDescriptor(f audio.Format) PCMDescriptor {
	if f.BitDepth != 16 {
		panic(fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, f.BitDepth))
	}

	var mask ChannelMask
	switch f.Channels {
	case 1:
		mask = SpeakerFrontCenter
	case 2:
		mask = SpeakerFrontLeft | SpeakerFrontRight
	default:
		panic(fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels))
	}
	if f.SampleRate <= 0 || f.SampleRate > maxSampleRate {
		panic(fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, f.SampleRate))
	}

	return PCMDescriptor{
		Channels:          f.Channels,
		SampleRateMilliHz: uint32(f.SampleRate) * 1000,
		BitsPerSample:     16,
		ContainerSize:     16,
		ChannelMask:       mask,
		LittleEndian:      true,
	}
}
