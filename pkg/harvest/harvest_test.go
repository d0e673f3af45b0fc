package harvest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagsync/pkg/logger"
	"gagsync/pkg/models"
)

type memorySink struct {
	name    string
	stored  map[string]bool
	exists  []string
	saved   []string
	saveErr error
	existsE error
}

func newSink(name string, existing ...string) *memorySink {
	s := &memorySink{name: name, stored: map[string]bool{}}
	for _, id := range existing {
		s.stored[id] = true
	}
	return s
}

func (s *memorySink) Name() string { return s.name }

func (s *memorySink) Exists(_ context.Context, item models.Item) (bool, error) {
	s.exists = append(s.exists, item.ID)
	if s.existsE != nil {
		return false, s.existsE
	}
	return s.stored[item.ID], nil
}

func (s *memorySink) Save(_ context.Context, item models.Item) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, item.ID)
	s.stored[item.ID] = true
	return nil
}

type sliceSource struct {
	batches [][]models.Item
	calls   int
	err     error
}

func (s *sliceSource) Next(context.Context) ([]models.Item, bool, error) {
	s.calls++
	if s.err != nil {
		return nil, false, s.err
	}
	if len(s.batches) == 0 {
		return nil, false, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, true, nil
}

func items(ids ...string) []models.Item {
	out := make([]models.Item, len(ids))
	for i, id := range ids {
		out[i] = models.Item{ID: id, URL: "https://9gag.com/gag/" + id, CoverURL: "https://img/" + id + ".jpg"}
	}
	return out
}

type recorder struct {
	started  int
	events   []string
	outcome  string
	written  int
	skipped  int
	finalErr error
	startErr error
}

func (r *recorder) Start(context.Context, string) (string, error) {
	r.started++
	if r.startErr != nil {
		return "", r.startErr
	}
	return "run-1", nil
}

func (r *recorder) Record(_ context.Context, _, itemID, sink, action string) error {
	r.events = append(r.events, sink+":"+itemID+":"+action)
	return nil
}

func (r *recorder) Finish(_ context.Context, _, outcome string, written, skipped int, runErr error) error {
	r.outcome = outcome
	r.written = written
	r.skipped = skipped
	r.finalErr = runErr
	return nil
}

func TestSkipExistingContinues(t *testing.T) {
	sink := newSink("local", "i2")
	source := &sliceSource{batches: [][]models.Item{items("i1", "i2", "i3"), items("i4")}}

	o := New(Sinks{Local: sink}, Policy{SkipExisting: true}, logger.NewTestLogger())
	summary, err := o.Run(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, []string{"i1", "i3", "i4"}, sink.saved)
	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, 4, summary.Items)
	assert.Equal(t, 3, summary.Written)
	assert.Equal(t, 1, summary.Skipped)
	assert.False(t, summary.Stopped)
}

func TestStopExistingEndsRun(t *testing.T) {
	sink := newSink("local", "i2")
	source := &sliceSource{batches: [][]models.Item{items("i1", "i2", "i3"), items("i4")}}
	log := logger.NewTestLogger()

	o := New(Sinks{Local: sink}, Policy{StopExisting: true}, log)
	summary, err := o.Run(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, []string{"i1"}, sink.saved)
	assert.Equal(t, []string{"i1", "i2"}, sink.exists, "i3 is never evaluated")
	assert.Equal(t, 1, source.calls, "no further batch is requested")
	assert.True(t, summary.Stopped)
	assert.Equal(t, "i2", summary.StopItem)
	assert.Equal(t, "local", summary.StopSink)
	assert.True(t, log.HasMessage("stopping at existing item"))
}

func TestSinksVisitedLocalFirst(t *testing.T) {
	var order []string
	local := &orderSink{memorySink: newSink("local"), order: &order}
	remote := &orderSink{memorySink: newSink("remote"), order: &order}

	o := New(Sinks{Remote: remote, Local: local}, Policy{}, logger.NewTestLogger())
	_, err := o.Run(context.Background(), &sliceSource{batches: [][]models.Item{items("i1", "i2")}})
	require.NoError(t, err)

	assert.Equal(t, []string{"local:i1", "remote:i1", "local:i2", "remote:i2"}, order)
}

type orderSink struct {
	*memorySink
	order *[]string
}

func (s *orderSink) Save(ctx context.Context, item models.Item) error {
	*s.order = append(*s.order, s.name+":"+item.ID)
	return s.memorySink.Save(ctx, item)
}

func TestStopCheckedPerSink(t *testing.T) {
	local := newSink("local")
	remote := newSink("remote", "i2")

	o := New(Sinks{Local: local, Remote: remote}, Policy{StopExisting: true}, logger.NewTestLogger())
	summary, err := o.Run(context.Background(), &sliceSource{batches: [][]models.Item{items("i1", "i2", "i3")}})
	require.NoError(t, err)

	assert.Equal(t, []string{"i1", "i2"}, local.saved, "local write precedes the remote stop")
	assert.Equal(t, []string{"i1"}, remote.saved)
	assert.Equal(t, "remote", summary.StopSink)
}

func TestNoPolicyWritesEverything(t *testing.T) {
	sink := newSink("remote", "i1")

	o := New(Sinks{Remote: sink}, Policy{}, logger.NewTestLogger())
	summary, err := o.Run(context.Background(), &sliceSource{batches: [][]models.Item{items("i1", "i2")}})
	require.NoError(t, err)

	assert.Empty(t, sink.exists, "existence is not checked without a policy")
	assert.Equal(t, []string{"i1", "i2"}, sink.saved)
	assert.Equal(t, 2, summary.Written)
}

func TestFaultsPropagate(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		sink   *memorySink
		source *sliceSource
		policy Policy
	}{
		{
			name:   "source",
			sink:   newSink("local"),
			source: &sliceSource{err: boom},
		},
		{
			name:   "exists",
			sink:   &memorySink{name: "local", stored: map[string]bool{}, existsE: boom},
			source: &sliceSource{batches: [][]models.Item{items("i1")}},
			policy: Policy{SkipExisting: true},
		},
		{
			name:   "save",
			sink:   &memorySink{name: "local", stored: map[string]bool{}, saveErr: boom},
			source: &sliceSource{batches: [][]models.Item{items("i1")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			o := New(Sinks{Local: tt.sink}, tt.policy, logger.NewTestLogger(), WithRecorder(rec))

			_, err := o.Run(context.Background(), tt.source)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, "failed", rec.outcome)
			assert.ErrorIs(t, rec.finalErr, boom)
		})
	}
}

func TestRecorderTracksRun(t *testing.T) {
	rec := &recorder{}
	sink := newSink("local", "i2")

	o := New(Sinks{Local: sink}, Policy{StopExisting: true}, logger.NewTestLogger(),
		WithRecorder(rec), WithCommand("sync"))
	_, err := o.Run(context.Background(), &sliceSource{batches: [][]models.Item{items("i1", "i2")}})
	require.NoError(t, err)

	assert.Equal(t, 1, rec.started)
	assert.Equal(t, []string{"local:i1:written", "local:i2:stopped"}, rec.events)
	assert.Equal(t, "stopped", rec.outcome)
	assert.Equal(t, 1, rec.written)
}

func TestRecorderFailureIsNotFatal(t *testing.T) {
	rec := &recorder{startErr: errors.New("disk full")}
	log := logger.NewTestLogger()

	o := New(Sinks{Local: newSink("local")}, Policy{}, log, WithRecorder(rec))
	summary, err := o.Run(context.Background(), &sliceSource{batches: [][]models.Item{items("i1")}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Written)
	assert.Empty(t, rec.events)
	assert.Empty(t, rec.outcome)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &sliceSource{batches: [][]models.Item{items("i1")}}
	_, err := New(Sinks{Local: newSink("local")}, Policy{}, nil).Run(ctx, source)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, source.calls)
}

type progressSpy struct {
	batches []int
	actions []Action
}

func (p *progressSpy) BatchStarted(index, size int) { p.batches = append(p.batches, size) }
func (p *progressSpy) ItemProcessed(_ models.Item, _ string, action Action) {
	p.actions = append(p.actions, action)
}

func TestProgressReported(t *testing.T) {
	spy := &progressSpy{}
	o := New(Sinks{Local: newSink("local", "i1")}, Policy{SkipExisting: true}, nil, WithProgress(spy))

	_, err := o.Run(context.Background(), &sliceSource{batches: [][]models.Item{items("i1", "i2"), items("i3")}})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, spy.batches)
	assert.Equal(t, []Action{ActionSkipped, ActionWritten, ActionWritten}, spy.actions)
}

func TestBatchSource(t *testing.T) {
	sink := newSink("local")
	source := Batch(items("p1")...)

	summary, err := New(Sinks{Local: sink}, Policy{}, nil).Run(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Batches)
	assert.Equal(t, []string{"p1"}, sink.saved)

	_, ok, err := source.Next(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok, "a fixed source is exhausted once")
}
