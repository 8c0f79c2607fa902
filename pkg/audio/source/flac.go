// ABOUTME: FLAC file source
// ABOUTME: Decodes with mewkiz/flac and scales any bit depth to 16-bit
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/lowlat/pkg/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file     *os.File
	stream   *flac.Stream
	format   audio.Format
	bitDepth int
	title    string
	loop     bool

	// frame is the partially consumed block, pos the next sample within it
	frame *frame.Frame
	pos   int
}

// NewFLACSource opens a FLAC file. Only mono and stereo files are accepted.
func NewFLACSource(path string, loop bool) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	if err := checkChannels(int(info.NChannels)); err != nil {
		f.Close()
		return nil, err
	}

	format := audio.PCM16(int(info.SampleRate), int(info.NChannels))
	format.Codec = "flac"

	return &FLACSource{
		file:     f,
		stream:   stream,
		format:   format,
		bitDepth: int(info.BitsPerSample),
		title:    titleFromPath(path),
		loop:     loop,
	}, nil
}

func (s *FLACSource) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	s.frame = nil
	s.pos = 0
	return nil
}

func (s *FLACSource) Read(samples []int16) (int, error) {
	ch := s.format.Channels
	frames := len(samples) / ch
	written := 0
	rewound := false

	for written < frames {
		if s.frame == nil || s.pos >= int(s.frame.BlockSize) {
			fr, err := s.stream.ParseNext()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					return written * ch, err
				}
				if !s.loop || rewound {
					if written == 0 {
						return 0, io.EOF
					}
					break
				}
				if err := s.rewind(); err != nil {
					return written * ch, err
				}
				rewound = true
				continue
			}
			s.frame = fr
			s.pos = 0
			rewound = false
		}

		for s.pos < int(s.frame.BlockSize) && written < frames {
			for c := 0; c < ch; c++ {
				samples[written*ch+c] = audio.ScaleToInt16(s.frame.Subframes[c].Samples[s.pos], s.bitDepth)
			}
			s.pos++
			written++
		}
	}

	return written * ch, nil
}

func (s *FLACSource) Format() audio.Format { return s.format }
func (s *FLACSource) Title() string        { return s.title }
func (s *FLACSource) Close() error {
	return s.file.Close()
}
