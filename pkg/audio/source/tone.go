// ABOUTME: Test tone generator
// ABOUTME: Phase-continuous sine wave usable directly as a sample producer
package source

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/Resonate-Protocol/lowlat/pkg/audio"
)

// ToneSource generates a sine wave on every channel
type ToneSource struct {
	mu        sync.Mutex
	format    audio.Format
	frequency float64
	amplitude float64
	phase     float64
	step      float64
}

// NewToneSource creates a tone at 50% volume
func NewToneSource(sampleRate, channels int, frequency float64) *ToneSource {
	if frequency <= 0 {
		frequency = DefaultToneHz
	}
	f := audio.PCM16(sampleRate, channels)
	f.Codec = "tone"
	return &ToneSource{
		format:    f,
		frequency: frequency,
		amplitude: 0.5,
		step:      2 * math.Pi * frequency / float64(sampleRate),
	}
}

// SetAmplitude sets the peak level in [0, 1]
func (s *ToneSource) SetAmplitude(a float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amplitude = math.Max(0, math.Min(1, a))
}

// next advances one frame. Callers hold mu.
func (s *ToneSource) next() int16 {
	v := int16(math.Sin(s.phase) * 32767.0 * s.amplitude)
	s.phase += s.step
	if s.phase >= 2*math.Pi {
		s.phase -= 2 * math.Pi
	}
	return v
}

func (s *ToneSource) Read(samples []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.format.Channels
	frames := len(samples) / ch
	for i := 0; i < frames; i++ {
		v := s.next()
		for c := 0; c < ch; c++ {
			samples[i*ch+c] = v
		}
	}
	return frames * ch, nil
}

// Fill renders straight into a little-endian PCM buffer without allocating
func (s *ToneSource) Fill(buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bpf := s.format.BytesPerFrame()
	frames := len(buf) / bpf
	for i := 0; i < frames; i++ {
		v := uint16(s.next())
		for c := 0; c < s.format.Channels; c++ {
			binary.LittleEndian.PutUint16(buf[i*bpf+c*2:], v)
		}
	}
	clear(buf[frames*bpf:])
}

func (s *ToneSource) Format() audio.Format { return s.format }
func (s *ToneSource) Title() string        { return "Test Tone" }
func (s *ToneSource) Close() error         { return nil }
