package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagsync/pkg/harvest"
	"gagsync/pkg/journal"
	"gagsync/pkg/models"
)

func TestProgressDisplayVerbose(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, "sync", true)

	p.BatchStarted(0, 2)
	p.ItemProcessed(models.Item{ID: "a1", Title: "first"}, "local", harvest.ActionWritten)
	p.ItemProcessed(models.Item{ID: "a1", Title: "first"}, "remote", harvest.ActionSkipped)
	p.Finish()

	out := buf.String()
	assert.Contains(t, out, "batch 1 (2 items)")
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "remote")
	assert.Equal(t, 1, p.written["local"])
	assert.Equal(t, 1, p.skipped["remote"])
	assert.Equal(t, 1, p.position)
}

func TestProgressDisplayLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, "replay", false)

	p.BatchStarted(2, 4)
	p.ItemProcessed(models.Item{ID: "x9"}, "local", harvest.ActionWritten)

	assert.Contains(t, buf.String(), "batch 3")
	assert.Contains(t, buf.String(), "1/4")
	assert.Contains(t, buf.String(), "x9")
}

func TestRenderSummary(t *testing.T) {
	s := harvest.Summary{Batches: 2, Items: 5, Written: 3, Skipped: 1, Stopped: true, StopItem: "a5", StopSink: "remote"}

	out := RenderSummary("sync", s, nil)
	assert.Contains(t, out, "stopped at a5 (remote)")
	assert.Contains(t, out, "written")

	out = RenderSummary("sync", harvest.Summary{}, errors.New("boom"))
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "boom")
}

func TestRenderRuns(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	runs := []journal.Run{
		{Command: "sync", StartedAt: start, FinishedAt: start.Add(90 * time.Second), Outcome: journal.OutcomeStopped, Written: 4},
		{Command: "replay", StartedAt: start, Outcome: journal.OutcomeRunning},
	}

	out := RenderRuns(runs)
	assert.Contains(t, out, "2024-03-01 10:00:00")
	assert.Contains(t, out, "stopped")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "replay")

	assert.Contains(t, RenderRuns(nil), "no runs recorded")
}

func TestRenderItem(t *testing.T) {
	out := RenderItem(models.Item{ID: "a1", Title: "t", Tags: []string{"Funny", "Cats"}, CoverURL: "c", MediaURL: "m.mp4"})
	assert.Contains(t, out, "Funny, Cats")
	assert.Contains(t, out, "m.mp4")
}

type senderSpy struct {
	titles   []string
	messages []string
}

func (s *senderSpy) Send(title, message string) error {
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return errors.New("no display")
}

func TestNotifyRun(t *testing.T) {
	spy := &senderSpy{}
	n := NewNotifierWithSender(spy)

	n.NotifyRun("sync", harvest.Summary{Written: 2, Skipped: 1, Duration: 5 * time.Second}, nil)
	n.NotifyRun("sync", harvest.Summary{Stopped: true, StopItem: "a3", Written: 1}, nil)
	n.NotifyRun("replay", harvest.Summary{}, errors.New("rate limited"))

	require.Len(t, spy.messages, 3)
	assert.Equal(t, "gagsync sync", spy.titles[0])
	assert.Equal(t, "2 written, 1 skipped in 5s", spy.messages[0])
	assert.Equal(t, "stopped at a3 after 1 new items", spy.messages[1])
	assert.Equal(t, "failed: rate limited", spy.messages[2])

	var nilNotifier *Notifier
	nilNotifier.NotifyRun("sync", harvest.Summary{}, nil)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.bytes))
	}
}

func TestRenderEvents(t *testing.T) {
	out := RenderEvents([]journal.Event{{ItemID: "a1", Sink: "local", Action: "written", At: time.Now()}})
	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "written")

	assert.Contains(t, RenderEvents(nil), "no events recorded")
}
