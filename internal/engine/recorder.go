package engine

import (
	"github.com/alexisbeaulieu97/boardtune/internal/model"
)

// Recorder tallies operation outcomes for one run. It is built and mutated
// only by the Runner's single goroutine and read once at the end by the
// summary renderer; it is returned explicitly rather than living in ambient
// state.
type Recorder struct {
	results      []model.OperationResult
	succeeded    []string
	skippedFlag  []string
	skippedState []string
	failed       []string
	warnings     int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record registers exactly one outcome for an operation.
func (r *Recorder) Record(res model.OperationResult) {
	r.results = append(r.results, res)
	r.warnings += len(res.Warnings)

	switch res.Outcome {
	case model.OutcomeSuccess:
		r.succeeded = append(r.succeeded, res.Name)
	case model.OutcomeSkippedFlag:
		r.skippedFlag = append(r.skippedFlag, res.Name)
	case model.OutcomeSkippedState:
		r.skippedState = append(r.skippedState, res.Name)
	case model.OutcomeFailed:
		r.failed = append(r.failed, res.Name)
	}
}

// Results returns every recorded result in execution order.
func (r *Recorder) Results() []model.OperationResult {
	return r.results
}

// Total returns the number of recorded outcomes.
func (r *Recorder) Total() int {
	return len(r.results)
}

// SuccessCount returns the number of applied operations.
func (r *Recorder) SuccessCount() int {
	return len(r.succeeded)
}

// SkippedByFlag returns names of operations whose guard rejected them.
func (r *Recorder) SkippedByFlag() []string {
	return r.skippedFlag
}

// SkippedByState returns names of operations already satisfied or
// unactionable.
func (r *Recorder) SkippedByState() []string {
	return r.skippedState
}

// Failed returns names of failed operations in execution order.
func (r *Recorder) Failed() []string {
	return r.failed
}

// FailureCount returns the number of failed operations.
func (r *Recorder) FailureCount() int {
	return len(r.failed)
}

// WarningCount returns the total soft warnings across all operations.
func (r *Recorder) WarningCount() int {
	return r.warnings
}

// ExitCode derives the process exit status: zero iff no operation failed.
func (r *Recorder) ExitCode() int {
	if len(r.failed) > 0 {
		return 1
	}
	return 0
}
