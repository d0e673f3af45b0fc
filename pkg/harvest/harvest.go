// Package harvest drives a batch source through the storage sinks.
//
// For every item of every batch, each configured sink is visited in a
// fixed order (local cache, then remote catalog) and the run policy
// decides between writing, skipping and stopping:
//
//   - SkipExisting: an item the sink already holds is skipped for that sink.
//   - StopExisting: an item the sink already holds ends the whole run.
//   - neither: every item is written to every sink, updating on conflict.
//
// Stopping is a normal outcome, not an error. Items evaluated before the
// stop keep their writes; no further item or batch is touched.
package harvest

import (
	"context"
	"time"

	"gagsync/pkg/logger"
	"gagsync/pkg/models"
)

// Sink is a storage destination with an existence check.
type Sink interface {
	Name() string
	Exists(ctx context.Context, item models.Item) (bool, error)
	Save(ctx context.Context, item models.Item) error
}

// BatchSource yields batches until it reports false. *feed.Batches and
// *catalog.Pages implement it.
type BatchSource interface {
	Next(ctx context.Context) ([]models.Item, bool, error)
}

// Fixed is a BatchSource over batches known up front.
type Fixed struct {
	batches [][]models.Item
}

// Batch returns a source yielding items as a single batch
func Batch(items ...models.Item) *Fixed {
	return &Fixed{batches: [][]models.Item{items}}
}

func (f *Fixed) Next(context.Context) ([]models.Item, bool, error) {
	if len(f.batches) == 0 {
		return nil, false, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, true, nil
}

// Recorder keeps a durable trace of runs. *journal.Journal implements it.
type Recorder interface {
	Start(ctx context.Context, command string) (string, error)
	Record(ctx context.Context, runID, itemID, sink, action string) error
	Finish(ctx context.Context, runID, outcome string, written, skipped int, runErr error) error
}

// Progress receives live updates for display.
type Progress interface {
	BatchStarted(index, size int)
	ItemProcessed(item models.Item, sink string, action Action)
}

// Policy selects what happens to items a sink already holds.
type Policy struct {
	SkipExisting bool
	StopExisting bool
}

// Outcome tells the enclosing loop whether to go on.
type Outcome int

const (
	Continue Outcome = iota
	Stop
)

func (o Outcome) String() string {
	if o == Stop {
		return "stop"
	}
	return "continue"
}

// Action is what happened to one item on one sink
type Action string

const (
	ActionWritten Action = "written"
	ActionSkipped Action = "skipped"
	ActionStopped Action = "stopped"
)

// Sinks holds the sink of each kind. Either may be nil.
type Sinks struct {
	Local  Sink
	Remote Sink
}

// ordered returns the configured sinks, local first.
func (s Sinks) ordered() []Sink {
	var out []Sink
	if s.Local != nil {
		out = append(out, s.Local)
	}
	if s.Remote != nil {
		out = append(out, s.Remote)
	}
	return out
}

// Summary counts what a run did
type Summary struct {
	Batches  int
	Items    int
	Written  int
	Skipped  int
	Stopped  bool
	StopItem string
	StopSink string
	Duration time.Duration
}

// Outcome returns the journal outcome name for the summary
func (s Summary) Outcome(err error) string {
	switch {
	case err != nil:
		return "failed"
	case s.Stopped:
		return "stopped"
	default:
		return "completed"
	}
}

// Orchestrator runs batch sources through the sinks.
type Orchestrator struct {
	sinks    []Sink
	policy   Policy
	logger   logger.Logger
	recorder Recorder
	progress Progress
	command  string
}

// Option configures an orchestrator
type Option func(*Orchestrator)

// WithRecorder journals runs and sink actions
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithProgress reports live progress
func WithProgress(p Progress) Option {
	return func(o *Orchestrator) { o.progress = p }
}

// WithCommand names the run in the journal
func WithCommand(name string) Option {
	return func(o *Orchestrator) { o.command = name }
}

// New creates an orchestrator over sinks
func New(sinks Sinks, policy Policy, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sinks:   sinks.ordered(),
		policy:  policy,
		logger:  logger.Component(log, "harvest"),
		command: "sync",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run consumes source until it is exhausted, a sink asks to stop, or a
// fault occurs. A stop returns a nil error with Summary.Stopped set.
func (o *Orchestrator) Run(ctx context.Context, source BatchSource) (summary Summary, err error) {
	start := time.Now()
	runID := o.startRun(ctx)

	defer func() {
		summary.Duration = time.Since(start)
		o.finishRun(ctx, runID, summary, err)
	}()

	o.logger.InfoWithFields("harvest started", map[string]interface{}{
		"sinks":         len(o.sinks),
		"skip_existing": o.policy.SkipExisting,
		"stop_existing": o.policy.StopExisting,
	})

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		batch, ok, err := source.Next(ctx)
		if err != nil {
			return summary, err
		}
		if !ok {
			break
		}

		if o.progress != nil {
			o.progress.BatchStarted(summary.Batches, len(batch))
		}
		summary.Batches++

		outcome, err := o.runBatch(ctx, runID, batch, &summary)
		if err != nil {
			return summary, err
		}
		if outcome == Stop {
			o.logger.InfoWithFields("stopping at existing item", map[string]interface{}{
				"id":   summary.StopItem,
				"sink": summary.StopSink,
			})
			return summary, nil
		}
	}

	o.logger.InfoWithFields("harvest completed", map[string]interface{}{
		"batches": summary.Batches,
		"items":   summary.Items,
		"written": summary.Written,
		"skipped": summary.Skipped,
	})
	return summary, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, runID string, batch []models.Item, summary *Summary) (Outcome, error) {
	for _, item := range batch {
		summary.Items++
		outcome, err := o.runItem(ctx, runID, item, summary)
		if err != nil || outcome == Stop {
			return outcome, err
		}
	}
	return Continue, nil
}

func (o *Orchestrator) runItem(ctx context.Context, runID string, item models.Item, summary *Summary) (Outcome, error) {
	for _, sink := range o.sinks {
		action, err := o.apply(ctx, sink, item)
		if err != nil {
			return Continue, err
		}

		o.record(ctx, runID, item, sink, action)

		switch action {
		case ActionWritten:
			summary.Written++
		case ActionSkipped:
			summary.Skipped++
		case ActionStopped:
			summary.Stopped = true
			summary.StopItem = item.ID
			summary.StopSink = sink.Name()
			return Stop, nil
		}
	}
	return Continue, nil
}

// apply evaluates the policy for one item on one sink.
func (o *Orchestrator) apply(ctx context.Context, sink Sink, item models.Item) (Action, error) {
	log := o.logger.WithFields(map[string]interface{}{
		"id":   item.ID,
		"sink": sink.Name(),
	})

	if o.policy.SkipExisting || o.policy.StopExisting {
		exists, err := sink.Exists(ctx, item)
		if err != nil {
			return "", err
		}
		if exists && o.policy.SkipExisting {
			log.Info("item exists, skipping")
			return ActionSkipped, nil
		}
		if exists {
			return ActionStopped, nil
		}
	}

	if err := sink.Save(ctx, item); err != nil {
		log.WithError(err).Error("failed to save item")
		return "", err
	}
	log.Debug("item saved")
	return ActionWritten, nil
}

func (o *Orchestrator) record(ctx context.Context, runID string, item models.Item, sink Sink, action Action) {
	if o.progress != nil {
		o.progress.ItemProcessed(item, sink.Name(), action)
	}
	if o.recorder == nil || runID == "" {
		return
	}
	if err := o.recorder.Record(ctx, runID, item.ID, sink.Name(), string(action)); err != nil {
		o.logger.WithError(err).Warn("failed to journal item")
	}
}

func (o *Orchestrator) startRun(ctx context.Context) string {
	if o.recorder == nil {
		return ""
	}
	id, err := o.recorder.Start(ctx, o.command)
	if err != nil {
		o.logger.WithError(err).Warn("failed to journal run start")
		return ""
	}
	return id
}

func (o *Orchestrator) finishRun(ctx context.Context, runID string, summary Summary, runErr error) {
	if o.recorder == nil || runID == "" {
		return
	}
	// record the outcome even when the run was cancelled
	ctx = context.WithoutCancel(ctx)
	if err := o.recorder.Finish(ctx, runID, summary.Outcome(runErr), summary.Written, summary.Skipped, runErr); err != nil {
		o.logger.WithError(err).Warn("failed to journal run finish")
	}
}
