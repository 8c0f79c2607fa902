// ABOUTME: MP3 file source
// ABOUTME: Decodes with go-mp3, which always yields 16-bit stereo
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/lowlat/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Source reads from an MP3 file
type MP3Source struct {
	file    *os.File
	decoder *mp3.Decoder
	format  audio.Format
	title   string
	loop    bool
	scratch []byte
}

// NewMP3Source opens an MP3 file
func NewMP3Source(path string, loop bool) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	format := audio.PCM16(decoder.SampleRate(), 2)
	format.Codec = "mp3"

	return &MP3Source{
		file:    f,
		decoder: decoder,
		format:  format,
		title:   titleFromPath(path),
		loop:    loop,
	}, nil
}

// rewind restarts decoding from the top of the file
func (s *MP3Source) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder, err := mp3.NewDecoder(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new decoder: %w", err)
	}
	s.decoder = decoder
	return nil
}

func (s *MP3Source) Read(samples []int16) (int, error) {
	need := len(samples) * 2
	if cap(s.scratch) < need {
		s.scratch = make([]byte, need)
	}
	buf := s.scratch[:need]

	filled := 0
	rewound := false
	for filled < need {
		n, err := s.decoder.Read(buf[filled:])
		filled += n
		if n > 0 {
			rewound = false
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) {
			return copyInt16(samples, buf[:filled]), err
		}
		// an empty file would otherwise rewind forever
		if !s.loop || rewound {
			n := copyInt16(samples, buf[:filled])
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		if err := s.rewind(); err != nil {
			return copyInt16(samples, buf[:filled]), err
		}
		rewound = true
	}

	return copyInt16(samples, buf), nil
}

func (s *MP3Source) Format() audio.Format { return s.format }
func (s *MP3Source) Title() string        { return s.title }
func (s *MP3Source) Close() error {
	return s.file.Close()
}

// copyInt16 converts whole little-endian samples from src into dst
func copyInt16(dst []int16, src []byte) int {
	n := min(len(src)/2, len(dst))
	for i := 0; i < n; i++ {
		dst[i] = audio.Int16LE(src, i)
	}
	return n
}
