package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagsync/pkg/logger"
)

func openJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump", "gagsync.db")
	j, err := Open(path, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j, path
}

func TestRunLifecycle(t *testing.T) {
	j, _ := openJournal(t)
	ctx := context.Background()

	clock := time.Unix(1700000000, 0)
	j.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	id, err := j.Start(ctx, "sync")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, j.Record(ctx, id, "a1", "local", "written"))
	require.NoError(t, j.Record(ctx, id, "a1", "remote", "skipped"))
	require.NoError(t, j.Finish(ctx, id, OutcomeStopped, 1, 1, nil))

	runs, err := j.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, "sync", run.Command)
	assert.Equal(t, OutcomeStopped, run.Outcome)
	assert.Equal(t, 1, run.Written)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 3*time.Second, run.Duration())

	events, err := j.Events(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "local", events[0].Sink)
	assert.Equal(t, "skipped", events[1].Action)
}

func TestFinishRecordsError(t *testing.T) {
	j, _ := openJournal(t)
	ctx := context.Background()

	id, err := j.Start(ctx, "replay")
	require.NoError(t, err)
	require.NoError(t, j.Finish(ctx, id, OutcomeFailed, 0, 0, errors.New("schema mismatch")))

	runs, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "schema mismatch", runs[0].Error)

	assert.Error(t, j.Finish(ctx, "no-such-run", OutcomeCompleted, 0, 0, nil))
}

func TestRecentOrderAndLimit(t *testing.T) {
	j, _ := openJournal(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	for i, cmd := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		j.now = func() time.Time { return at }
		_, err := j.Start(ctx, cmd)
		require.NoError(t, err)
	}

	runs, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].Command)
	assert.Equal(t, "second", runs[1].Command)
	assert.Equal(t, OutcomeRunning, runs[0].Outcome)
	assert.Zero(t, runs[0].Duration())
}

func TestReopenKeepsHistory(t *testing.T) {
	j, path := openJournal(t)
	ctx := context.Background()

	_, err := j.Start(ctx, "sync")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	again, err := Open(path, nil)
	require.NoError(t, err)
	defer again.Close()

	runs, err := again.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestEventsRequireKnownRun(t *testing.T) {
	j, _ := openJournal(t)
	err := j.Record(context.Background(), "missing-run", "a1", "local", "written")
	assert.Error(t, err, "foreign keys are enforced")
}
