package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// BatchMsg is sent when the harvester starts a batch
type BatchMsg struct {
	Index int
	Size  int
}

// ItemMsg is sent for every sink action
type ItemMsg struct {
	Entry Entry
}

// DoneMsg ends the dashboard with the run result
type DoneMsg struct {
	Err error
}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			if m.onQuit != nil && !m.done {
				m.onQuit()
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case BatchMsg:
		m.startBatch(msg.Index, msg.Size)
		return m, nil

	case ItemMsg:
		if msg.Entry.Time.IsZero() {
			msg.Entry.Time = time.Now()
		}
		m.addEntry(msg.Entry)
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}
