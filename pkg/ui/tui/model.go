package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gagsync/pkg/harvest"
)

// Entry is one sink action shown in the activity panel
type Entry struct {
	Time   time.Time
	ItemID string
	Title  string
	Sink   string
	Action harvest.Action
}

// Model is the dashboard state. It is only touched from the bubbletea
// event loop.
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	label     string
	startTime time.Time

	batch     int
	batchSize int
	position  int
	lastItem  string

	written map[string]int
	skipped map[string]int
	sinks   []string

	entries    []Entry
	maxEntries int

	done bool
	err  error

	onQuit func()

	width  int
	height int
}

// NewModel creates the dashboard for a run labelled label
func NewModel(label string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	return &Model{
		spinner:    s,
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		label:      label,
		startTime:  time.Now(),
		written:    make(map[string]int),
		skipped:    make(map[string]int),
		maxEntries: 12,
	}
}

// Init starts the spinner
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) startBatch(index, size int) {
	m.batch = index + 1
	m.batchSize = size
	m.position = 0
	m.lastItem = ""
}

func (m *Model) addEntry(e Entry) {
	if e.ItemID != m.lastItem {
		m.lastItem = e.ItemID
		m.position++
	}

	m.trackSink(e.Sink)
	switch e.Action {
	case harvest.ActionWritten:
		m.written[e.Sink]++
	case harvest.ActionSkipped:
		m.skipped[e.Sink]++
	}

	m.entries = append(m.entries, e)
	if len(m.entries) > m.maxEntries {
		m.entries = m.entries[len(m.entries)-m.maxEntries:]
	}
}

func (m *Model) trackSink(name string) {
	for _, s := range m.sinks {
		if s == name {
			return
		}
	}
	m.sinks = append(m.sinks, name)
}

// batchProgress returns the fraction of the current batch evaluated
func (m *Model) batchProgress() float64 {
	if m.batchSize == 0 {
		return 0
	}
	p := float64(m.position) / float64(m.batchSize)
	if p > 1 {
		p = 1
	}
	return p
}
