// ABOUTME: Sample producer sources for the output stream engine
// ABOUTME: Opens MP3, FLAC and WAV files by extension or falls back to a test tone
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/lowlat/internal/logging"
	"github.com/Resonate-Protocol/lowlat/pkg/audio"
)

const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
	DefaultToneHz     = 440.0
)

// ErrUnsupportedChannels is returned for files the engine cannot render
var ErrUnsupportedChannels = errors.New("source: only mono and stereo are supported")

// Source provides interleaved 16-bit PCM samples
type Source interface {
	// Read fills samples and returns how many were written. io.EOF marks the
	// end of a non-looping source.
	Read(samples []int16) (int, error)
	// Format returns the PCM format of the samples Read produces
	Format() audio.Format
	// Title returns a display name
	Title() string
	Close() error
}

// Open creates a source for a local file. An empty path yields a test tone.
// When loop is set, file sources restart from the beginning at end of stream.
func Open(path string, loop bool) (Source, error) {
	if path == "" {
		return NewToneSource(DefaultSampleRate, DefaultChannels, DefaultToneHz), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	logger := logging.Component("source")
	ext := strings.ToLower(filepath.Ext(path))

	var (
		src Source
		err error
	)
	switch ext {
	case ".mp3":
		src, err = NewMP3Source(path, loop)
	case ".flac":
		src, err = NewFLACSource(path, loop)
	case ".wav":
		src, err = NewWAVSource(path, loop)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac, .wav)", ext)
	}
	if err != nil {
		return nil, err
	}

	f := src.Format()
	logger.Info().
		Str("title", src.Title()).
		Str("codec", f.Codec).
		Int("rate", f.SampleRate).
		Int("channels", f.Channels).
		Bool("loop", loop).
		Msg("loaded audio file")
	return src, nil
}

// titleFromPath uses the file name without extension as the title
func titleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func checkChannels(n int) error {
	if n != 1 && n != 2 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedChannels, n)
	}
	return nil
}
