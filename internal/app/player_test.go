// ABOUTME: Tests for player application orchestration
// ABOUTME: Tests player creation, commands, status and lifecycle on the headless backend
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Resonate-Protocol/lowlat/internal/config"
	"github.com/Resonate-Protocol/lowlat/internal/ui"
	"github.com/Resonate-Protocol/lowlat/pkg/audio/output"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headlessConfig() config.Config {
	cfg := config.Default()
	cfg.Backend = "headless"
	cfg.FramesPerBuffer = 96
	return cfg
}

func TestNewPlayer(t *testing.T) {
	p, err := New(headlessConfig(), nil)
	require.NoError(t, err)
	defer p.Close()

	status := p.Status()
	assert.Equal(t, "headless", status.Backend)
	assert.True(t, status.Valid)
	assert.False(t, status.Open)
	assert.Equal(t, "Test Tone", status.Title)
	assert.Equal(t, 48000, status.SampleRate)
}

func TestNewPlayerErrors(t *testing.T) {
	cfg := headlessConfig()
	cfg.Backend = "alsa"
	_, err := New(cfg, nil)
	assert.Error(t, err)

	cfg = headlessConfig()
	cfg.Source.Path = "/does/not/exist.mp3"
	_, err = New(cfg, nil)
	assert.ErrorContains(t, err, "failed to open source")
}

// failingPlatform never realizes an engine
type failingPlatform struct{}

func (failingPlatform) Name() string                         { return "failing" }
func (failingPlatform) Properties() output.Properties        { return output.Properties{} }
func (failingPlatform) CreateEngine() (output.Engine, error) { return nil, output.ResultResourceError }

func TestNewPlayerInvalidEngine(t *testing.T) {
	_, err := NewWithPlatform(headlessConfig(), failingPlatform{}, nil)
	assert.True(t, errors.Is(err, ErrEngineUnavailable))
}

func TestPlayerCommands(t *testing.T) {
	p, err := New(headlessConfig(), nil)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Open())
	status := p.Status()
	assert.True(t, status.Open)
	assert.True(t, status.Playing)
	assert.Equal(t, 96*4, status.BufferBytes)
	assert.NotEmpty(t, status.SessionID)

	p.Handle(ui.CommandTogglePlay)
	assert.False(t, p.Status().Playing)

	p.Handle(ui.CommandTogglePlay)
	assert.True(t, p.Status().Playing)

	p.Handle(ui.CommandFlush)
	status = p.Status()
	assert.False(t, status.Playing)
	assert.False(t, status.Queued)

	p.Handle(ui.CommandReopen)
	assert.False(t, p.Status().Open)

	p.Handle(ui.CommandReopen)
	assert.True(t, p.Status().Open)
}

func TestPlayerRunPublishesStatus(t *testing.T) {
	p, err := New(headlessConfig(), nil)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Open())

	controls := ui.NewControls()
	updates := make(chan ui.StatusMsg, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(context.Background(), controls, func(msg ui.StatusMsg) {
			select {
			case updates <- msg:
			default:
			}
		})
	}()

	select {
	case msg := <-updates:
		assert.True(t, msg.Open)
		assert.Greater(t, msg.Submitted, uint64(0))
	case <-time.After(2 * time.Second):
		t.Fatal("no status published")
	}

	controls.Quit <- struct{}{}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after quit")
	}
}

func TestPlayerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := New(headlessConfig(), reg)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Open())
	require.Eventually(t, func() bool {
		return p.Status().Submitted >= 3
	}, 2*time.Second, time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "lowlat_output_sessions_opened_total", "lowlat_output_session_underruns")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPlayerCloseIsIdempotent(t *testing.T) {
	p, err := New(headlessConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, p.Open())

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	assert.False(t, p.Status().Valid)
}

func writeClip(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, 24000, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 24000},
		Data:           make([]int, 2400),
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestPlayerFlushDropsPrefetchedAudio(t *testing.T) {
	cfg := headlessConfig()
	cfg.Source.Path = writeClip(t)
	cfg.Source.Loop = false
	cfg.StartPlaying = false

	p, err := New(cfg, nil)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Open())

	require.Eventually(t, p.prefetcher.Exhausted, time.Second, 5*time.Millisecond)
	assert.Greater(t, p.Status().Buffered, time.Duration(0))

	p.Flush()

	status := p.Status()
	assert.False(t, status.Playing)
	assert.False(t, status.Queued)
	assert.Equal(t, time.Duration(0), status.Buffered)
}

func TestPlayerFileSourceResampled(t *testing.T) {
	path := writeClip(t)

	cfg := headlessConfig()
	cfg.Source.Path = path
	cfg.Source.Resample = true

	p, err := New(cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	status := p.Status()
	assert.Equal(t, "clip", status.Title)
	assert.Equal(t, "wav", status.Codec)
	assert.Equal(t, 48000, status.SampleRate)
	assert.Equal(t, 1, status.Channels)

	require.NoError(t, p.Open())
	assert.Equal(t, 96*2, p.Status().BufferBytes)
}
