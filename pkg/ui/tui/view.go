package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"gagsync/pkg/harvest"
)

// View renders the dashboard
func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	width := m.width - 4
	if width < 40 {
		width = 40
	}

	sections := []string{
		m.renderHeader(),
		m.renderStatsPanel(width),
		m.renderActivityPanel(width),
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render("  ✗ "+m.err.Error()))
	}
	sections = append(sections, helpStyle.Render("q: stop harvest and quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	state := m.spinner.View() + " harvesting"
	if m.done {
		state = writtenStyle.Render("✓ done")
	}
	return headerStyle.Render(fmt.Sprintf("gagsync %s  %s", m.label, state))
}

func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" RUN ")

	rows := []string{
		stat("elapsed", formatDuration(time.Since(m.startTime))),
		stat("batch", fmt.Sprintf("%d  (%d/%d)", m.batch, m.position, m.batchSize)),
		m.bar.ViewAs(m.batchProgress()),
	}
	for _, sink := range m.sinks {
		rows = append(rows, stat(sink, fmt.Sprintf("%s  %s",
			writtenStyle.Render(fmt.Sprintf("%d written", m.written[sink])),
			skippedStyle.Render(fmt.Sprintf("%d skipped", m.skipped[sink])),
		)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n")),
	)
}

func (m *Model) renderActivityPanel(width int) string {
	title := titleStyle.Render(" ACTIVITY ")

	if len(m.entries) == 0 {
		empty := lipgloss.NewStyle().Foreground(dimWhite).Render("waiting for the first batch...")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, empty))
	}

	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		text := e.Title
		if limit := width - 40; limit > 3 && len([]rune(text)) > limit {
			text = string([]rune(text)[:limit-3]) + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %-7s %s %s",
			titleDim.Render(e.Time.Format("15:04:05")),
			actionStyle(e.Action).Render(fmt.Sprintf("%-7s", e.Action)),
			e.Sink,
			idStyle.Render(e.ItemID),
			titleDim.Render(text),
		))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

func stat(label, value string) string {
	return statsLabelStyle.Render(label) + statsValueStyle.Render(value)
}

func actionStyle(a harvest.Action) lipgloss.Style {
	switch a {
	case harvest.ActionWritten:
		return writtenStyle
	case harvest.ActionSkipped:
		return skippedStyle
	default:
		return stoppedStyle
	}
}

// formatDuration formats a duration as a clock
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
