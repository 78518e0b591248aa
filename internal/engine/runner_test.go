package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// fakeOp is a scriptable operation for engine tests. It tracks phase calls
// so tests can assert that guard-rejected and satisfied operations never
// touch the host.
type fakeOp struct {
	name      string
	guard     bool
	probe     *model.Probe
	probeErr  error
	applyErr  error
	verifyErr error
	panicIn   string

	probed   int
	applied  int
	verified int

	// satisfied flips after a successful apply so repeated runs model a
	// reconciled host.
	satisfiedAfterApply bool
}

func (f *fakeOp) Metadata() operation.Metadata {
	return operation.Metadata{Name: f.name}
}

func (f *fakeOp) Guard(*config.Snapshot) bool {
	if f.panicIn == "guard" {
		panic("guard blew up")
	}
	return f.guard
}

func (f *fakeOp) Probe(context.Context, *config.Snapshot) (*model.Probe, error) {
	f.probed++
	if f.panicIn == "probe" {
		panic("probe blew up")
	}
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.probe, nil
}

func (f *fakeOp) Apply(_ context.Context, _ *config.Snapshot, _ *model.Probe) (*operation.Report, error) {
	f.applied++
	if f.panicIn == "apply" {
		panic("apply blew up")
	}
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	if f.satisfiedAfterApply {
		f.probe = model.Satisfied("reconciled")
	}
	return &operation.Report{Message: "applied"}, nil
}

func (f *fakeOp) Verify(context.Context, *config.Snapshot) error {
	f.verified++
	if f.panicIn == "verify" {
		panic("verify blew up")
	}
	return f.verifyErr
}

func testSnapshot(t *testing.T) *config.Snapshot {
	t.Helper()
	snap, err := config.Defaults()
	require.NoError(t, err)
	return &snap
}

func TestRunnerGuardSkipHasNoSideEffects(t *testing.T) {
	t.Parallel()

	op := &fakeOp{name: "disabled", guard: false}
	rec := NewRunner(nil).RunAll(context.Background(), []operation.Operation{op}, testSnapshot(t))

	require.Equal(t, 1, rec.Total())
	assert.Equal(t, []string{"disabled"}, rec.SkippedByFlag())
	assert.Zero(t, op.probed)
	assert.Zero(t, op.applied)
	assert.Zero(t, op.verified)
}

func TestRunnerSatisfiedProbeSkipsApply(t *testing.T) {
	t.Parallel()

	op := &fakeOp{name: "already-done", guard: true, probe: model.Satisfied("noatime present")}
	rec := NewRunner(nil).RunAll(context.Background(), []operation.Operation{op}, testSnapshot(t))

	require.Equal(t, []string{"already-done"}, rec.SkippedByState())
	assert.Equal(t, 1, op.probed)
	assert.Zero(t, op.applied)
	assert.Zero(t, op.verified)
}

func TestRunnerUnactionableProbeSkips(t *testing.T) {
	t.Parallel()

	op := &fakeOp{name: "no-uuid", guard: true, probe: model.Unactionable("root UUID unresolved")}
	rec := NewRunner(nil).RunAll(context.Background(), []operation.Operation{op}, testSnapshot(t))

	require.Equal(t, []string{"no-uuid"}, rec.SkippedByState())
	assert.Zero(t, rec.FailureCount())
	assert.Zero(t, op.applied)
}

func TestRunnerAppliesAndVerifies(t *testing.T) {
	t.Parallel()

	op := &fakeOp{name: "governor", guard: true, probe: model.Drifted("performance configured", nil)}
	rec := NewRunner(nil).RunAll(context.Background(), []operation.Operation{op}, testSnapshot(t))

	require.Equal(t, 1, rec.SuccessCount())
	assert.Equal(t, 1, op.applied)
	assert.Equal(t, 1, op.verified)
}

func TestRunnerVerificationFailureFailsCleanApply(t *testing.T) {
	t.Parallel()

	op := &fakeOp{
		name:      "silent-noop",
		guard:     true,
		probe:     model.Missing("unit absent", nil),
		verifyErr: boardtuneerrors.NewVerificationError("silent-noop", "unit still disabled"),
	}
	rec := NewRunner(nil).RunAll(context.Background(), []operation.Operation{op}, testSnapshot(t))

	require.Equal(t, []string{"silent-noop"}, rec.Failed())
	results := rec.Results()
	require.Len(t, results, 1)

	var verErr *boardtuneerrors.VerificationError
	require.ErrorAs(t, results[0].Error, &verErr)
}

func TestRunnerFailureIsolation(t *testing.T) {
	t.Parallel()

	ops := make([]operation.Operation, 0, 5)
	for i, name := range []string{"one", "two", "three", "four", "five"} {
		op := &fakeOp{name: name, guard: true, probe: model.Missing("needs apply", nil)}
		if i == 2 {
			op.applyErr = errors.New("network unreachable")
		}
		ops = append(ops, op)
	}

	rec := NewRunner(nil).RunAll(context.Background(), ops, testSnapshot(t))

	require.Equal(t, 5, rec.Total())
	assert.Equal(t, []string{"three"}, rec.Failed())
	assert.Equal(t, 4, rec.SuccessCount())
	// Operations after the failure still executed.
	assert.Equal(t, 1, ops[3].(*fakeOp).applied)
	assert.Equal(t, 1, ops[4].(*fakeOp).applied)
}

func TestRunnerRecoversPanics(t *testing.T) {
	t.Parallel()

	for _, phase := range []string{"guard", "probe", "apply", "verify"} {
		phase := phase
		t.Run(phase, func(t *testing.T) {
			t.Parallel()

			panicking := &fakeOp{
				name:    "explosive",
				guard:   true,
				probe:   model.Missing("needs apply", nil),
				panicIn: phase,
			}
			follower := &fakeOp{name: "follower", guard: true, probe: model.Missing("needs apply", nil)}

			rec := NewRunner(nil).RunAll(context.Background(), []operation.Operation{panicking, follower}, testSnapshot(t))

			require.Equal(t, 2, rec.Total())
			assert.Equal(t, []string{"explosive"}, rec.Failed())
			assert.Equal(t, 1, rec.SuccessCount())
		})
	}
}

func TestRunnerProbeErrorBecomesFailure(t *testing.T) {
	t.Parallel()

	op := &fakeOp{name: "broken-probe", guard: true, probeErr: errors.New("fstab unreadable")}
	rec := NewRunner(nil).RunAll(context.Background(), []operation.Operation{op}, testSnapshot(t))

	require.Equal(t, []string{"broken-probe"}, rec.Failed())
	assert.Zero(t, op.applied)
}

func TestRunnerSecondRunIsAllSkips(t *testing.T) {
	t.Parallel()

	ops := []operation.Operation{
		&fakeOp{name: "a", guard: true, probe: model.Missing("needs apply", nil), satisfiedAfterApply: true},
		&fakeOp{name: "b", guard: true, probe: model.Drifted("wrong value", nil), satisfiedAfterApply: true},
		&fakeOp{name: "c", guard: false},
	}
	snap := testSnapshot(t)
	runner := NewRunner(nil)

	first := runner.RunAll(context.Background(), ops, snap)
	require.Equal(t, 2, first.SuccessCount())

	second := runner.RunAll(context.Background(), ops, snap)
	assert.Zero(t, second.SuccessCount())
	assert.Zero(t, second.FailureCount())
	assert.Equal(t, 3, len(second.SkippedByFlag())+len(second.SkippedByState()))
}

func TestRunnerProbeOnlyNeverApplies(t *testing.T) {
	t.Parallel()

	op := &fakeOp{name: "drifted", guard: true, probe: model.Drifted("wrong value", nil)}
	rec := NewRunner(nil, WithProbeOnly()).RunAll(context.Background(), []operation.Operation{op}, testSnapshot(t))

	assert.Zero(t, op.applied)
	require.Equal(t, []string{"drifted"}, rec.SkippedByState())
	assert.Contains(t, rec.Results()[0].Message, "would apply")
}

func TestRunnerNotifiesPerOperation(t *testing.T) {
	t.Parallel()

	var seen []string
	notify := func(res model.OperationResult) { seen = append(seen, res.Name) }

	ops := []operation.Operation{
		&fakeOp{name: "first", guard: true, probe: model.Satisfied("ok")},
		&fakeOp{name: "second", guard: false},
	}
	NewRunner(nil, WithNotify(notify)).RunAll(context.Background(), ops, testSnapshot(t))

	assert.Equal(t, []string{"first", "second"}, seen)
}
