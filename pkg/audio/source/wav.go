// ABOUTME: WAV file source
// ABOUTME: Decodes PCM WAV with go-audio/wav into reusable int buffers
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/lowlat/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource reads from a PCM WAV file
type WAVSource struct {
	file     *os.File
	decoder  *wav.Decoder
	format   audio.Format
	bitDepth int
	title    string
	loop     bool
	buf      *goaudio.IntBuffer
}

// NewWAVSource opens a WAV file. Only mono and stereo files are accepted.
func NewWAVSource(path string, loop bool) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}
	if decoder.BitDepth < 8 {
		f.Close()
		return nil, fmt.Errorf("failed to decode WAV: invalid bit depth %d", decoder.BitDepth)
	}
	if err := checkChannels(int(decoder.NumChans)); err != nil {
		f.Close()
		return nil, err
	}

	format := audio.PCM16(int(decoder.SampleRate), int(decoder.NumChans))
	format.Codec = "wav"

	return &WAVSource{
		file:     f,
		decoder:  decoder,
		format:   format,
		bitDepth: int(decoder.BitDepth),
		title:    titleFromPath(path),
		loop:     loop,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		},
	}, nil
}

func (s *WAVSource) rewind() error {
	if err := s.decoder.Rewind(); err != nil {
		return fmt.Errorf("failed to rewind WAV: %w", err)
	}
	return nil
}

func (s *WAVSource) Read(samples []int16) (int, error) {
	written := 0
	rewound := false

	for written < len(samples) {
		want := len(samples) - written
		if cap(s.buf.Data) < want {
			s.buf.Data = make([]int, want)
		}
		s.buf.Data = s.buf.Data[:want]

		n, err := s.decoder.PCMBuffer(s.buf)
		if err != nil && err != io.EOF {
			return written, err
		}
		for i := 0; i < n; i++ {
			v := s.buf.Data[i]
			if s.bitDepth == 8 {
				// 8-bit WAV is unsigned
				v -= 128
			}
			samples[written+i] = audio.ScaleToInt16(int32(v), s.bitDepth)
		}
		written += n
		if n > 0 {
			rewound = false
			continue
		}

		if !s.loop || rewound {
			if written == 0 {
				return 0, io.EOF
			}
			break
		}
		if err := s.rewind(); err != nil {
			return written, err
		}
		rewound = true
	}

	return written, nil
}

func (s *WAVSource) Format() audio.Format { return s.format }
func (s *WAVSource) Title() string        { return s.title }
func (s *WAVSource) Close() error {
	return s.file.Close()
}
