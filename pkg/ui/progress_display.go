package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gagsync/pkg/harvest"
	"gagsync/pkg/models"
)

// ProgressDisplay prints a single updating status line while a harvest runs.
// In verbose mode every sink action gets its own line instead.
type ProgressDisplay struct {
	mu       sync.Mutex
	out      io.Writer
	label    string
	verbose  bool
	start    time.Time
	batch    int
	size     int
	position int
	written  map[string]int
	skipped  map[string]int
	current  string
}

// NewProgressDisplay creates a display labelled with the run name
func NewProgressDisplay(out io.Writer, label string, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:     out,
		label:   label,
		verbose: verbose,
		start:   time.Now(),
		written: make(map[string]int),
		skipped: make(map[string]int),
	}
}

// BatchStarted implements harvest.Progress
func (p *ProgressDisplay) BatchStarted(index, size int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.batch = index + 1
	p.size = size
	p.position = 0

	if p.verbose {
		fmt.Fprintf(p.out, "%s batch %d (%d items)\n", Magenta("→"), p.batch, size)
	}
}

// ItemProcessed implements harvest.Progress
func (p *ProgressDisplay) ItemProcessed(item models.Item, sink string, action harvest.Action) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if item.ID != p.current {
		p.current = item.ID
		p.position++
	}

	switch action {
	case harvest.ActionWritten:
		p.written[sink]++
	case harvest.ActionSkipped:
		p.skipped[sink]++
	}

	if p.verbose {
		fmt.Fprintf(p.out, "  %s %-8s %s %s\n", actionMark(action), sink, item.ID, Dim(truncate(item.Title, 50)))
		return
	}
	p.printLine()
}

// Finish ends the status line
func (p *ProgressDisplay) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.verbose {
		fmt.Fprintln(p.out)
	}
}

func (p *ProgressDisplay) printLine() {
	const barWidth = 20
	filled := 0
	if p.size > 0 {
		filled = p.position * barWidth / p.size
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("%s batch %d [%s] %d/%d • %s written • %s skipped • %s",
		Cyan(p.label),
		p.batch,
		bar,
		p.position,
		p.size,
		Green(fmt.Sprint(total(p.written))),
		Yellow(fmt.Sprint(total(p.skipped))),
		FormatDuration(time.Since(p.start)),
	)
	if p.current != "" {
		line += " • " + p.current
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

func actionMark(action harvest.Action) string {
	switch action {
	case harvest.ActionWritten:
		return Green("✓")
	case harvest.ActionSkipped:
		return Yellow("↷")
	default:
		return Red("■")
	}
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
