package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"FXSentinel/internal/collector"
	"FXSentinel/internal/metrics"
	"FXSentinel/internal/model"
	"FXSentinel/internal/reconciler"
	"FXSentinel/internal/recorder"
)

// Outcome is the terminal state of one pair in a run: emitted with an
// intent, or failed with an error.
type Outcome struct {
	Pair     model.Pair
	Snapshot *model.Snapshot
	Intent   recorder.Intent
	// Handle is the row written, when the store returns one.
	Handle string
	Err    error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Report summarizes one sync run.
type Report struct {
	Store       string
	Started     time.Time
	Finished    time.Time
	Outcomes    []Outcome
	Ambiguities []*model.ReconciliationAmbiguityError
}

func (r Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// Count returns the number of emitted and failed pairs.
func (r Report) Count() (emitted, failed int) {
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed++
		} else {
			emitted++
		}
	}
	return emitted, failed
}

// Orchestrator runs one snapshot sync over the configured pairs.
type Orchestrator struct {
	Collector *collector.Collector
	Store     recorder.Store
	Pairs     []model.Pair
	Metrics   *metrics.Recorder
	Now       func() time.Time
	logger    *zap.Logger
}

// NewOrchestrator creates an Orchestrator. m may be nil.
func NewOrchestrator(col *collector.Collector, store recorder.Store, pairs []model.Pair, m *metrics.Recorder, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		Collector: col,
		Store:     store,
		Pairs:     pairs,
		Metrics:   m,
		Now:       time.Now,
		logger:    logger,
	}
}

// ComputeSnapshot fetches and evaluates one pair without touching the store.
func (o *Orchestrator) ComputeSnapshot(ctx context.Context, pair model.Pair) (*model.Snapshot, error) {
	return o.Collector.Collect(ctx, pair)
}

// Run syncs every configured pair in order. Per-pair failures are recorded
// in the report and never stop the run.
func (o *Orchestrator) Run(ctx context.Context) Report {
	report := Report{Store: o.Store.Name(), Started: o.Now()}
	o.logger.Info("sync run started", zap.Int("pairs", len(o.Pairs)), zap.String("store", report.Store))

	rows, err := o.Store.ListRows(ctx)
	if err != nil {
		err = errors.Wrap(err, "list existing rows")
		o.logger.Error("cannot reconcile any pair", zap.Error(err))
		for _, pair := range o.Pairs {
			report.Outcomes = append(report.Outcomes, o.record(Outcome{Pair: pair, Err: err}))
		}
		return o.finish(report)
	}

	idx, dups := reconciler.BuildIndex(rows)
	for _, d := range dups {
		o.logger.Warn("duplicate rows for pair, using the last one",
			zap.String("pair", d.Pair), zap.Strings("handles", d.Handles))
	}
	report.Ambiguities = dups

	for _, pair := range o.Pairs {
		report.Outcomes = append(report.Outcomes, o.record(o.syncPair(ctx, pair, idx)))
	}
	return o.finish(report)
}

func (o *Orchestrator) syncPair(ctx context.Context, pair model.Pair, idx recorder.RowIndex) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Pair: pair, Err: errors.Wrap(err, "run cancelled")}
	}

	snap, err := o.ComputeSnapshot(ctx, pair)
	if err != nil {
		return Outcome{Pair: pair, Err: err}
	}

	intent := reconciler.Reconcile(snap, idx)
	handle, err := recorder.Apply(ctx, o.Store, intent)
	if err != nil {
		return Outcome{Pair: pair, Snapshot: snap, Intent: intent, Err: errors.Wrapf(err, "%s row", intent.Kind)}
	}
	return Outcome{Pair: pair, Snapshot: snap, Intent: intent, Handle: handle}
}

func (o *Orchestrator) record(out Outcome) Outcome {
	if out.Failed() {
		o.logger.Error("pair failed", zap.String("pair", out.Pair.String()), zap.Error(out.Err))
		if o.Metrics != nil {
			o.Metrics.RecordPair(metrics.ResultFailed)
		}
		return out
	}

	flags := make([]string, len(out.Snapshot.Flags))
	for i, f := range out.Snapshot.Flags {
		flags[i] = string(f)
	}
	o.logger.Info("pair synced",
		zap.String("pair", out.Pair.String()),
		zap.String("intent", string(out.Intent.Kind)),
		zap.String("handle", out.Handle),
		zap.Float64("price", out.Snapshot.CurrentPrice),
		zap.Strings("flags", flags),
	)
	if o.Metrics != nil {
		o.Metrics.RecordPair(metrics.ResultEmitted)
		o.Metrics.RecordIntent(string(out.Intent.Kind))
	}
	return out
}

func (o *Orchestrator) finish(report Report) Report {
	report.Finished = o.Now()
	emitted, failed := report.Count()
	o.logger.Info("sync run finished",
		zap.Int("emitted", emitted), zap.Int("failed", failed), zap.Duration("took", report.Duration()))
	if o.Metrics != nil {
		o.Metrics.RecordRun(report.Duration())
	}
	return report
}
