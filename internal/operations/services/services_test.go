package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/hostexec"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

var exitOne = errors.New("exit status 1")

func testSnapshot(t *testing.T) *config.Snapshot {
	t.Helper()
	snap, err := config.Defaults()
	require.NoError(t, err)
	return &snap
}

func TestGuardFollowsToggle(t *testing.T) {
	t.Parallel()

	op := New([]string{"bluetooth.service"}, &hostexec.Fake{})
	snap := testSnapshot(t)
	assert.True(t, op.Guard(snap))

	snap.DisableServices = false
	assert.False(t, op.Guard(snap))
}

func TestProbeSatisfiedWhenNothingEnabled(t *testing.T) {
	t.Parallel()

	exec := &hostexec.Fake{Responses: map[string]hostexec.Response{
		"systemctl is-enabled bluetooth.service":    {Result: hostexec.Result{Stdout: "disabled"}},
		"systemctl is-enabled triggerhappy.service": {Result: hostexec.Result{Stdout: "not-found"}, Err: exitOne},
	}}
	op := New([]string{"bluetooth.service", "triggerhappy.service"}, exec)

	probe, err := op.Probe(context.Background(), testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, model.StateSatisfied, probe.State)
	assert.Contains(t, probe.Message, "1 not present")
}

func TestProbeDriftedListsEnabledServices(t *testing.T) {
	t.Parallel()

	exec := &hostexec.Fake{Responses: map[string]hostexec.Response{
		"systemctl is-enabled bluetooth.service": {Result: hostexec.Result{Stdout: "enabled"}},
		"systemctl is-enabled avahi-daemon.service": {
			Result: hostexec.Result{Stdout: "enabled"},
		},
		"systemctl is-enabled triggerhappy.service": {Result: hostexec.Result{Stdout: "masked"}},
	}}
	op := New([]string{"bluetooth.service", "avahi-daemon.service", "triggerhappy.service"}, exec)

	probe, err := op.Probe(context.Background(), testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, model.StateDrifted, probe.State)
	assert.Contains(t, probe.Message, "bluetooth.service")
	assert.Contains(t, probe.Message, "avahi-daemon.service")
	assert.NotContains(t, probe.Message, "triggerhappy")
}

func TestApplyMissingUnitIsWarningNotFailure(t *testing.T) {
	t.Parallel()

	exec := &hostexec.Fake{Responses: map[string]hostexec.Response{
		"systemctl is-enabled bluetooth.service":    {Result: hostexec.Result{Stdout: "enabled"}},
		"systemctl is-enabled triggerhappy.service": {Result: hostexec.Result{Stdout: "enabled"}},
		"systemctl disable --now triggerhappy.service": {
			Result: hostexec.Result{Stderr: "Unit file triggerhappy.service does not exist."},
			Err:    exitOne,
		},
	}}
	op := New([]string{"bluetooth.service", "triggerhappy.service"}, exec)
	snap := testSnapshot(t)

	probe, err := op.Probe(context.Background(), snap)
	require.NoError(t, err)

	report, err := op.Apply(context.Background(), snap, probe)
	require.NoError(t, err)
	assert.Contains(t, report.Message, "disabled 1")
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "triggerhappy.service")
}

func TestApplyManagerRejectionFailsOperation(t *testing.T) {
	t.Parallel()

	exec := &hostexec.Fake{Responses: map[string]hostexec.Response{
		"systemctl is-enabled bluetooth.service": {Result: hostexec.Result{Stdout: "enabled"}},
		"systemctl disable --now bluetooth.service": {
			Result: hostexec.Result{Stderr: "Access denied"},
			Err:    exitOne,
		},
	}}
	op := New([]string{"bluetooth.service"}, exec)
	snap := testSnapshot(t)

	probe, err := op.Probe(context.Background(), snap)
	require.NoError(t, err)

	_, err = op.Apply(context.Background(), snap, probe)
	require.Error(t, err)

	var execErr *boardtuneerrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, err.Error(), "Access denied")
}

func TestApplyAttemptsAllSubTargetsDespiteRejection(t *testing.T) {
	t.Parallel()

	exec := &hostexec.Fake{Responses: map[string]hostexec.Response{
		"systemctl is-enabled bluetooth.service": {Result: hostexec.Result{Stdout: "enabled"}},
		"systemctl is-enabled cups.service":      {Result: hostexec.Result{Stdout: "enabled"}},
		"systemctl disable --now bluetooth.service": {
			Result: hostexec.Result{Stderr: "Access denied"},
			Err:    exitOne,
		},
	}}
	op := New([]string{"bluetooth.service", "cups.service"}, exec)
	snap := testSnapshot(t)

	probe, err := op.Probe(context.Background(), snap)
	require.NoError(t, err)

	_, err = op.Apply(context.Background(), snap, probe)
	require.Error(t, err)
	assert.True(t, exec.Called("disable --now cups.service"))
}

func TestVerifyFailsWhenServiceStillEnabled(t *testing.T) {
	t.Parallel()

	exec := &hostexec.Fake{Responses: map[string]hostexec.Response{
		"systemctl is-enabled bluetooth.service": {Result: hostexec.Result{Stdout: "enabled"}},
	}}
	op := New([]string{"bluetooth.service"}, exec)

	err := op.Verify(context.Background(), testSnapshot(t))
	require.Error(t, err)

	var verErr *boardtuneerrors.VerificationError
	require.ErrorAs(t, err, &verErr)
	assert.Contains(t, err.Error(), "bluetooth.service")
}

func TestVerifyPassesWhenAllDisabled(t *testing.T) {
	t.Parallel()

	exec := &hostexec.Fake{Responses: map[string]hostexec.Response{
		"systemctl is-enabled bluetooth.service": {Result: hostexec.Result{Stdout: "disabled"}, Err: exitOne},
	}}
	op := New([]string{"bluetooth.service"}, exec)
	require.NoError(t, op.Verify(context.Background(), testSnapshot(t)))
}
