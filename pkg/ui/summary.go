package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"gagsync/pkg/harvest"
	"gagsync/pkg/journal"
	"gagsync/pkg/models"
)

var (
	accent = lipgloss.Color("#00FFFF")
	muted  = lipgloss.Color("#626262")
	okay   = lipgloss.Color("#39FF14")
	warn   = lipgloss.Color("#FF6700")
	fail   = lipgloss.Color("#FF0000")

	labelStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#FF00FF")).Padding(0, 2)
	headerStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderSummary formats the counters of a finished harvest
func RenderSummary(title string, s harvest.Summary, runErr error) string {
	status := lipgloss.NewStyle().Foreground(okay).Render("completed")
	switch {
	case runErr != nil:
		status = lipgloss.NewStyle().Foreground(fail).Render("failed")
	case s.Stopped:
		status = lipgloss.NewStyle().Foreground(warn).Render(fmt.Sprintf("stopped at %s (%s)", s.StopItem, s.StopSink))
	}

	rows := []string{
		lipgloss.NewStyle().Bold(true).Render(title),
		row("status", status),
		row("batches", fmt.Sprint(s.Batches)),
		row("items", fmt.Sprint(s.Items)),
		row("written", fmt.Sprint(s.Written)),
		row("skipped", fmt.Sprint(s.Skipped)),
		row("elapsed", FormatDuration(s.Duration)),
	}
	if runErr != nil {
		rows = append(rows, row("error", lipgloss.NewStyle().Foreground(fail).Render(runErr.Error())))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// RenderItem formats one extracted item
func RenderItem(item models.Item) string {
	rows := []string{
		row("id", item.ID),
		row("title", item.Title),
		row("url", item.URL),
		row("tags", strings.Join(item.Tags, ", ")),
		row("cover", item.CoverURL),
	}
	if item.HasMedia() {
		rows = append(rows, row("media", item.MediaURL))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// RenderRuns formats journal runs as a table, newest first
func RenderRuns(runs []journal.Run) string {
	if len(runs) == 0 {
		return lipgloss.NewStyle().Foreground(muted).Render("no runs recorded")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(muted)).
		Headers("STARTED", "COMMAND", "OUTCOME", "WRITTEN", "SKIPPED", "DURATION", "ERROR").
		StyleFunc(func(r, c int) lipgloss.Style {
			if r == table.HeaderRow {
				return headerStyle
			}
			if c == 2 {
				return cellStyle.Foreground(outcomeColor(runs[r].Outcome))
			}
			return cellStyle
		})

	for _, run := range runs {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = FormatDuration(d)
		}
		t.Row(
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Command,
			run.Outcome,
			fmt.Sprint(run.Written),
			fmt.Sprint(run.Skipped),
			duration,
			truncate(run.Error, 40),
		)
	}
	return t.Render()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func outcomeColor(outcome string) lipgloss.Color {
	switch outcome {
	case journal.OutcomeCompleted:
		return okay
	case journal.OutcomeStopped, journal.OutcomeRunning:
		return warn
	default:
		return fail
	}
}

// RenderEvents formats the sink actions of one run
func RenderEvents(events []journal.Event) string {
	if len(events) == 0 {
		return lipgloss.NewStyle().Foreground(muted).Render("no events recorded")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(muted)).
		Headers("AT", "ITEM", "SINK", "ACTION").
		StyleFunc(func(r, c int) lipgloss.Style {
			if r == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, e := range events {
		t.Row(e.At.Format("15:04:05"), e.ItemID, e.Sink, e.Action)
	}
	return t.Render()
}
