// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key bindings and rendering
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // Controls are optional for testing

	if model.open {
		t.Error("expected open to be false initially")
	}

	if model.playing {
		t.Error("expected playing to be false initially")
	}

	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
}

func TestStatusMsgSession(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Backend:     "oto",
		Valid:       true,
		Open:        true,
		Playing:     true,
		Queued:      true,
		SessionID:   "abc",
		Codec:       "flac",
		SampleRate:  44100,
		Channels:    2,
		BufferBytes: 768,
		Title:       "Test Song",
	})

	if !model.open || !model.playing || !model.queued {
		t.Error("expected open, playing and queued after status update")
	}

	if model.backend != "oto" {
		t.Errorf("expected backend 'oto', got '%s'", model.backend)
	}

	if model.sampleRate != 44100 {
		t.Errorf("expected sampleRate 44100, got %d", model.sampleRate)
	}

	if model.bufferBytes != 768 {
		t.Errorf("expected bufferBytes 768, got %d", model.bufferBytes)
	}

	if model.title != "Test Song" {
		t.Errorf("expected title 'Test Song', got '%s'", model.title)
	}
}

func TestStatusMsgReplacesState(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{Open: true, Playing: true, SessionID: "abc"})
	model.applyStatus(StatusMsg{Open: false})

	if model.open || model.playing {
		t.Error("expected closed stream after second update")
	}

	if model.sessionID != "" {
		t.Errorf("expected empty sessionID, got '%s'", model.sessionID)
	}
}

func TestStatusMsgStats(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Submitted:       1000,
		EnqueueFailures: 2,
		Underruns:       3,
		SourceUnderruns: 4,
		Buffered:        150 * time.Millisecond,
	})

	if model.submitted != 1000 {
		t.Errorf("expected submitted 1000, got %d", model.submitted)
	}

	if model.enqueueFailures != 2 {
		t.Errorf("expected enqueueFailures 2, got %d", model.enqueueFailures)
	}

	if model.underruns != 3 {
		t.Errorf("expected underruns 3, got %d", model.underruns)
	}

	if model.sourceUnderruns != 4 {
		t.Errorf("expected sourceUnderruns 4, got %d", model.sourceUnderruns)
	}

	if model.buffered != 150*time.Millisecond {
		t.Errorf("expected buffered 150ms, got %v", model.buffered)
	}
}

func TestStatusMsgRuntimeStats(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Goroutines: 42,
		MemAlloc:   1024 * 1024,
		MemSys:     2048 * 1024,
	})

	if model.goroutines != 42 {
		t.Errorf("expected goroutines 42, got %d", model.goroutines)
	}

	if model.memAlloc != 1024*1024 {
		t.Errorf("expected memAlloc %d, got %d", 1024*1024, model.memAlloc)
	}

	if model.memSys != 2048*1024 {
		t.Errorf("expected memSys %d, got %d", 2048*1024, model.memSys)
	}
}

func TestUpdateStatusMsg(t *testing.T) {
	model := NewModel(nil)

	updated, cmd := model.Update(StatusMsg{Open: true, Codec: "tone"})
	if cmd != nil {
		t.Error("expected no command from status update")
	}

	m := updated.(Model)
	if !m.open || m.codec != "tone" {
		t.Error("expected status applied through Update")
	}
}

func TestKeyCommands(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want Command
	}{
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, CommandTogglePlay},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}}, CommandTogglePlay},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}}, CommandFlush},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}}, CommandReopen},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			controls := NewControls()
			model := NewModel(controls)

			_, cmd := model.Update(tt.key)
			if cmd != nil {
				t.Error("expected no tea command")
			}

			select {
			case got := <-controls.Commands:
				if got != tt.want {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			default:
				t.Errorf("expected %v to be sent", tt.want)
			}
		})
	}
}

func TestKeyQuit(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	select {
	case <-controls.Quit:
	default:
		t.Error("expected quit signal")
	}

	if !updated.(Model).quitting {
		t.Error("expected quitting state")
	}

	// a second quit must not block on the full channel
	_, _ = updated.(Model).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
}

func TestKeyDebugToggle(t *testing.T) {
	model := NewModel(nil)

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if !updated.(Model).showDebug {
		t.Error("expected debug shown after 'd'")
	}

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if updated.(Model).showDebug {
		t.Error("expected debug hidden after second 'd'")
	}
}

func TestKeysWithoutControls(t *testing.T) {
	model := NewModel(nil)

	// nil controls must not panic
	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
}

func TestCommandChannelDoesNotBlock(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	for i := 0; i < 50; i++ {
		model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	}

	if len(controls.Commands) != cap(controls.Commands) {
		t.Errorf("expected full command channel, got %d", len(controls.Commands))
	}
}

func TestViewRendering(t *testing.T) {
	model := NewModel(nil)

	view := model.View()
	if !strings.Contains(view, "closed") {
		t.Error("expected closed stream in view")
	}

	model.applyStatus(StatusMsg{
		Backend:     "headless",
		Valid:       true,
		Open:        true,
		Playing:     true,
		Codec:       "tone",
		SampleRate:  48000,
		Channels:    2,
		BufferBytes: 768,
		Title:       "Test Tone",
	})

	view = model.View()
	for _, want := range []string{"headless", "playing", "Test Tone", "48000Hz", "192 frames", "4.00ms"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}

	if strings.Contains(view, "DEBUG") {
		t.Error("debug section should be hidden by default")
	}
	model.showDebug = true
	if !strings.Contains(model.View(), "DEBUG") {
		t.Error("expected debug section")
	}
}

func TestViewInvalidEngine(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{Backend: "malgo", Valid: false})

	if !strings.Contains(model.View(), "engine unavailable") {
		t.Error("expected engine unavailable warning")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected 'short', got '%s'", got)
	}

	if got := truncate("a very long title indeed", 10); got != "a very ..." {
		t.Errorf("expected 'a very ...', got '%s'", got)
	}
}

func TestChannelName(t *testing.T) {
	if channelName(1) != "Mono" {
		t.Error("expected Mono for 1 channel")
	}

	if channelName(2) != "Stereo" {
		t.Error("expected Stereo for 2 channels")
	}
}
