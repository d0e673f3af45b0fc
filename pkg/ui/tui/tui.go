// Package tui is a full screen bubbletea dashboard for harvest runs.
package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"gagsync/pkg/harvest"
	"gagsync/pkg/models"
)

// TUI owns the bubbletea program. It implements harvest.Progress, so it can
// be handed to the orchestrator while Start blocks on another goroutine.
type TUI struct {
	program *tea.Program
	model   *Model
}

// Option configures the program
type Option func(*[]tea.ProgramOption)

// WithOutput renders to w instead of the terminal and disables the
// alternate screen.
func WithOutput(w io.Writer) Option {
	return func(opts *[]tea.ProgramOption) {
		*opts = append(*opts, tea.WithOutput(w), tea.WithInput(nil))
	}
}

// NewTUI creates a dashboard for the run named label. onQuit is called
// when the user quits before the run is done; use it to cancel the run.
func NewTUI(label string, onQuit func(), opts ...Option) *TUI {
	model := NewModel(label)
	model.onQuit = onQuit

	programOpts := []tea.ProgramOption{}
	for _, opt := range opts {
		opt(&programOpts)
	}
	if len(opts) == 0 {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	return &TUI{
		program: tea.NewProgram(model, programOpts...),
		model:   model,
	}
}

// Start runs the program until Done is called or the user quits.
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Done ends the dashboard
func (t *TUI) Done(err error) {
	t.program.Send(DoneMsg{Err: err})
}

// BatchStarted implements harvest.Progress
func (t *TUI) BatchStarted(index, size int) {
	t.program.Send(BatchMsg{Index: index, Size: size})
}

// ItemProcessed implements harvest.Progress
func (t *TUI) ItemProcessed(item models.Item, sink string, action harvest.Action) {
	t.program.Send(ItemMsg{Entry: Entry{
		ItemID: item.ID,
		Title:  item.Title,
		Sink:   sink,
		Action: action,
	}})
}
