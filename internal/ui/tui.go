// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the command channels back to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Command is a user request forwarded to the player loop
type Command int

const (
	CommandTogglePlay Command = iota + 1
	CommandFlush
	CommandReopen
)

func (c Command) String() string {
	switch c {
	case CommandTogglePlay:
		return "toggle-play"
	case CommandFlush:
		return "flush"
	case CommandReopen:
		return "reopen"
	default:
		return "unknown"
	}
}

// Controls holds channels from the TUI to the player
type Controls struct {
	Commands chan Command
	Quit     chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 10),
		Quit:     make(chan struct{}, 1),
	}
}

func (c *Controls) send(cmd Command) {
	if c == nil {
		return
	}
	select {
	case c.Commands <- cmd:
	default:
		// Don't block the UI if the player is behind
	}
}

func (c *Controls) quit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		controls: controls,
	}
}

// TUI runs the player display
type TUI struct {
	program *tea.Program
	updates chan StatusMsg
}

// New creates the TUI program
func New(controls *Controls) *TUI {
	return &TUI{
		program: tea.NewProgram(NewModel(controls), tea.WithAltScreen()),
		updates: make(chan StatusMsg, 10),
	}
}

// Run blocks until the user quits or Stop is called
func (t *TUI) Run() error {
	go func() {
		for status := range t.updates {
			t.program.Send(status)
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status snapshot to the TUI
func (t *TUI) Update(status StatusMsg) {
	select {
	case t.updates <- status:
	default:
		// Don't block if channel is full
	}
}

// Stop quits the program. Update must not be called afterwards.
func (t *TUI) Stop() {
	t.program.Quit()
	close(t.updates)
}
