// Package engine executes a fixed sequence of operations against a
// configuration snapshot, isolating failures so one broken step never blocks
// the rest, and aggregates outcomes into a Recorder.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/logger"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// Runner drives operations strictly in the supplied order. Order matters to
// the sequence author (later operations may rely on earlier effects) but the
// runner neither models nor enforces those dependencies, and it never
// retries.
type Runner struct {
	log    *logger.Logger
	notify func(model.OperationResult)

	// probeOnly runs guards and probes but never applies; used by the
	// check command to report drift without touching the host.
	probeOnly bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithNotify registers a callback invoked after each operation completes,
// before the next one starts.
func WithNotify(fn func(model.OperationResult)) Option {
	return func(r *Runner) { r.notify = fn }
}

// WithProbeOnly makes the runner report what would change without applying.
func WithProbeOnly() Option {
	return func(r *Runner) { r.probeOnly = true }
}

// NewRunner creates a Runner.
func NewRunner(log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll executes every operation in order and returns the aggregate
// recorder. Failure isolation is a hard invariant: an error or panic inside
// one operation is converted to a Failed outcome and execution proceeds to
// the next operation.
func (r *Runner) RunAll(ctx context.Context, ops []operation.Operation, snap *config.Snapshot) *Recorder {
	recorder := NewRecorder()

	for _, op := range ops {
		res := r.runOne(ctx, op, snap)
		recorder.Record(res)
		if r.notify != nil {
			r.notify(res)
		}
	}

	return recorder
}

// runOne executes a single operation's guard/probe/apply/verify cycle and
// always returns exactly one result; no error escapes past this boundary.
func (r *Runner) runOne(ctx context.Context, op operation.Operation, snap *config.Snapshot) (res model.OperationResult) {
	meta := op.Metadata()
	log := r.log.WithOperation(meta.Name)
	start := time.Now()

	res = model.OperationResult{Name: meta.Name, Timestamp: start}
	defer func() {
		if panicked := recover(); panicked != nil {
			res.Outcome = model.OutcomeFailed
			res.Error = boardtuneerrors.NewExecutionError(meta.Name, fmt.Errorf("panic: %v", panicked))
			res.Message = res.Error.Error()
			log.Error(res.Error, "operation panicked")
		}
		res.Duration = time.Since(start)
	}()

	if !op.Guard(snap) {
		res.Outcome = model.OutcomeSkippedFlag
		res.Message = "disabled by configuration"
		log.Debug("guard rejected operation")
		return res
	}

	probe, err := op.Probe(ctx, snap)
	if err != nil {
		res.Outcome = model.OutcomeFailed
		res.Error = boardtuneerrors.NewExecutionError(meta.Name, err)
		res.Message = fmt.Sprintf("probe failed: %v", err)
		log.Error(err, "probe failed")
		return res
	}
	if probe == nil {
		res.Outcome = model.OutcomeFailed
		res.Error = boardtuneerrors.NewExecutionError(meta.Name, fmt.Errorf("probe returned no result"))
		res.Message = res.Error.Error()
		return res
	}

	if !probe.NeedsAction {
		res.Outcome = model.OutcomeSkippedState
		res.Message = probe.Message
		log.Debug("already satisfied or unactionable")
		return res
	}

	if r.probeOnly {
		res.Outcome = model.OutcomeSkippedState
		res.Message = fmt.Sprintf("would apply: %s", probe.Message)
		return res
	}

	report, err := op.Apply(ctx, snap, probe)
	if err != nil {
		res.Outcome = model.OutcomeFailed
		res.Error = err
		res.Message = err.Error()
		log.Error(err, "apply failed")
		return res
	}
	if report != nil {
		res.Message = report.Message
		res.Warnings = report.Warnings
		for _, w := range report.Warnings {
			log.Warn(w)
		}
	}

	if err := op.Verify(ctx, snap); err != nil {
		res.Outcome = model.OutcomeFailed
		res.Error = err
		res.Message = err.Error()
		log.Error(err, "verification failed after apply")
		return res
	}

	res.Outcome = model.OutcomeSuccess
	if res.Message == "" {
		res.Message = "applied"
	}
	log.Info("operation applied")
	return res
}
