package model

import (
	"time"
)

// Outcome classifies the result of a single operation execution. Exactly one
// outcome is recorded per operation per run.
type Outcome string

const (
	// OutcomeSuccess indicates the operation applied a change and the
	// post-condition verified.
	OutcomeSuccess Outcome = "success"
	// OutcomeSkippedFlag indicates the operation's guard rejected it before
	// anything was probed.
	OutcomeSkippedFlag Outcome = "skipped_flag"
	// OutcomeSkippedState indicates the desired state already held, or the
	// probe found the host unactionable.
	OutcomeSkippedState Outcome = "skipped_state"
	// OutcomeFailed marks any error, panic, or verification miss.
	OutcomeFailed Outcome = "failed"
)

// OperationResult captures the outcome of one operation execution.
type OperationResult struct {
	Name      string
	Outcome   Outcome
	Message   string
	Error     error
	Warnings  []string
	Duration  time.Duration
	Timestamp time.Time
}

// Failed reports whether the result counts toward the failure tally.
func (r OperationResult) Failed() bool {
	return r.Outcome == OutcomeFailed
}
