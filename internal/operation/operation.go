// Package operation defines the contract every host reconciliation unit
// satisfies. An operation is a named, independently runnable unit with four
// phases: a guard over the configuration snapshot, a read-only probe of the
// host, an apply that performs the minimal change, and a verify that
// re-checks the probe condition afterwards.
package operation

import (
	"context"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
)

// Metadata identifies an operation. Name is unique within a run and is the
// identity outcomes are recorded under.
type Metadata struct {
	Name        string
	Description string
}

// Operation is a single idempotent unit of host reconciliation. The engine
// drives the phases; implementations never record outcomes themselves.
//
// Probe must be read-only against the host. Side effects are confined to
// Apply, except where a verify legitimately requires a transient action
// (e.g. a trial remount); any such action that fails must trigger a
// compensating rollback before the error is returned.
type Operation interface {
	// Metadata returns the operation's identity.
	Metadata() Metadata

	// Guard reports whether the snapshot enables this operation. A false
	// guard means no probing and no side effects.
	Guard(snap *config.Snapshot) bool

	// Probe inspects the host and reports whether the desired end-state
	// already holds. Idempotence is enforced here, not by re-running apply.
	Probe(ctx context.Context, snap *config.Snapshot) (*model.Probe, error)

	// Apply performs the minimal state change. It is only called after
	// Probe reported NeedsAction and receives that probe result. The
	// returned report may carry soft warnings that do not fail the
	// operation.
	Apply(ctx context.Context, snap *config.Snapshot, probe *model.Probe) (*Report, error)

	// Verify re-checks the condition Probe tests. A non-nil error after a
	// clean Apply still fails the operation; this defends against silent
	// no-ops.
	Verify(ctx context.Context, snap *config.Snapshot) error
}

// Report is what a successful Apply hands back to the engine. Warnings
// capture best-effort sub-targets that were not applicable (a service that
// does not exist on this image) without turning the outcome into a failure.
type Report struct {
	Message  string
	Warnings []string
}
