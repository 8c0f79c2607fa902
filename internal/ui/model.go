// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Defines stream state, key bindings and rendering
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model represents the TUI state
type Model struct {
	// Engine
	backend string
	valid   bool

	// Session
	open      bool
	playing   bool
	queued    bool
	sessionID string

	// Stream
	codec       string
	sampleRate  int
	channels    int
	bufferBytes int
	title       string

	// Stats
	submitted       uint64
	enqueueFailures uint64
	underruns       uint64
	sourceUnderruns uint64
	buffered        time.Duration

	// Runtime
	goroutines int
	memAlloc   uint64
	memSys     uint64

	showDebug bool
	quitting  bool
	controls  *Controls

	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	playingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Low-Latency Player"))
	b.WriteString("\n\n")

	m.renderEngine(&b)
	m.renderSession(&b)
	m.renderStats(&b)
	if m.showDebug {
		m.renderDebug(&b)
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space/p:Play/Pause  f:Flush  c:Close/Reopen  d:Debug  q:Quit"))

	return b.String()
}

func field(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(name + ": "))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

// renderEngine renders backend and engine validity
func (m Model) renderEngine(b *strings.Builder) {
	backend := m.backend
	if !m.valid {
		backend += " " + warnStyle.Render("(engine unavailable)")
	}
	field(b, "Backend", backend)
}

// renderSession renders the open session and its format
func (m Model) renderSession(b *strings.Builder) {
	if !m.open {
		field(b, "Stream", "closed")
		b.WriteString("\n")
		return
	}

	state := "paused"
	if m.playing {
		state = playingStyle.Render("playing")
	}
	b.WriteString(headerStyle.Render("Stream: "))
	b.WriteString(state)
	b.WriteString("\n")

	field(b, "Track", truncate(m.title, 48))
	field(b, "Format", fmt.Sprintf("%s %dHz %s 16-bit", m.codec, m.sampleRate, channelName(m.channels)))

	frames := 0
	if m.channels > 0 {
		frames = m.bufferBytes / (2 * m.channels)
	}
	latency := time.Duration(0)
	if m.sampleRate > 0 {
		latency = time.Duration(frames) * time.Second / time.Duration(m.sampleRate)
	}
	field(b, "Buffer", fmt.Sprintf("%d bytes, %d frames (%.2fms)", m.bufferBytes, frames, float64(latency)/float64(time.Millisecond)))
	b.WriteString("\n")
}

// renderStats renders buffer counters
func (m Model) renderStats(b *strings.Builder) {
	field(b, "Submitted", fmt.Sprintf("%d", m.submitted))

	failures := fmt.Sprintf("enqueue: %d  device: %d  source: %d", m.enqueueFailures, m.underruns, m.sourceUnderruns)
	b.WriteString(headerStyle.Render("Glitches: "))
	if m.enqueueFailures+m.underruns+m.sourceUnderruns > 0 {
		b.WriteString(warnStyle.Render(failures))
	} else {
		b.WriteString(valueStyle.Render(failures))
	}
	b.WriteString("\n")

	if m.buffered > 0 {
		field(b, "Prefetched", m.buffered.Round(time.Millisecond).String())
	}
}

// renderDebug renders session and runtime details
func (m Model) renderDebug(b *strings.Builder) {
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("DEBUG"))
	b.WriteString("\n")
	field(b, "  Session", m.sessionID)
	field(b, "  Queued", fmt.Sprintf("%t", m.queued))
	field(b, "  Goroutines", fmt.Sprintf("%d", m.goroutines))
	field(b, "  Memory", fmt.Sprintf("%.1fMB alloc / %.1fMB sys", float64(m.memAlloc)/(1<<20), float64(m.memSys)/(1<<20)))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.controls.quit()
		return m, tea.Quit
	case " ", "space", "p":
		m.controls.send(CommandTogglePlay)
	case "f":
		m.controls.send(CommandFlush)
	case "c":
		m.controls.send(CommandReopen)
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus replaces the displayed state with a snapshot
func (m *Model) applyStatus(msg StatusMsg) {
	m.backend = msg.Backend
	m.valid = msg.Valid
	m.open = msg.Open
	m.playing = msg.Playing
	m.queued = msg.Queued
	m.sessionID = msg.SessionID
	m.codec = msg.Codec
	m.sampleRate = msg.SampleRate
	m.channels = msg.Channels
	m.bufferBytes = msg.BufferBytes
	m.title = msg.Title
	m.submitted = msg.Submitted
	m.enqueueFailures = msg.EnqueueFailures
	m.underruns = msg.Underruns
	m.sourceUnderruns = msg.SourceUnderruns
	m.buffered = msg.Buffered
	m.goroutines = msg.Goroutines
	m.memAlloc = msg.MemAlloc
	m.memSys = msg.MemSys
}

// StatusMsg is a snapshot of player state
type StatusMsg struct {
	Backend         string
	Valid           bool
	Open            bool
	Playing         bool
	Queued          bool
	SessionID       string
	Codec           string
	SampleRate      int
	Channels        int
	BufferBytes     int
	Title           string
	Submitted       uint64
	EnqueueFailures uint64
	Underruns       uint64
	SourceUnderruns uint64
	Buffered        time.Duration
	Goroutines      int
	MemAlloc        uint64
	MemSys          uint64
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
