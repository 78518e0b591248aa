package netconf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
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

// installedFake reports the package present; the renderer file state drives
// the rest of the probe.
func installedFake() *hostexec.Fake {
	return &hostexec.Fake{Responses: map[string]hostexec.Response{
		"dpkg-query -W network-manager": {Result: hostexec.Result{Stdout: "network-manager\t1.42.4"}},
	}}
}

func notInstalledFake() *hostexec.Fake {
	return &hostexec.Fake{Responses: map[string]hostexec.Response{
		"dpkg-query -W network-manager": {
			Result: hostexec.Result{Stderr: "no packages found matching network-manager"},
			Err:    exitOne,
		},
	}}
}

func TestGuardFollowsToggle(t *testing.T) {
	t.Parallel()

	op := New("", &hostexec.Fake{})
	snap := testSnapshot(t)
	assert.True(t, op.Guard(snap))

	snap.NetworkManager = false
	assert.False(t, op.Guard(snap))
}

func TestProbeMissingWhenNothingConfigured(t *testing.T) {
	t.Parallel()

	op := New(filepath.Join(t.TempDir(), "renderer.yaml"), notInstalledFake())
	probe, err := op.Probe(context.Background(), testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, model.StateMissing, probe.State)
	assert.Contains(t, probe.Message, "not installed")
	assert.Contains(t, probe.Message, "renderer not configured")
}

func TestProbeDriftedWhenRendererDiffers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "renderer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network:\n  version: 2\n  renderer: networkd\n"), 0o600))

	op := New(path, installedFake())
	probe, err := op.Probe(context.Background(), testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, model.StateDrifted, probe.State)
	assert.Contains(t, probe.Message, "networkd")
}

func TestProbeSatisfied(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "renderer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network:\n  version: 2\n  renderer: NetworkManager\n"), 0o600))

	op := New(path, installedFake())
	probe, err := op.Probe(context.Background(), testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, model.StateSatisfied, probe.State)
}

func TestProbeInvalidYAMLIsParseError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "renderer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: [unclosed\n"), 0o600))

	op := New(path, installedFake())
	_, err := op.Probe(context.Background(), testSnapshot(t))
	require.Error(t, err)

	var parseErr *boardtuneerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestApplyInstallsPackageAndWritesConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "renderer.yaml")
	exec := notInstalledFake()
	op := New(path, exec)
	snap := testSnapshot(t)

	probe, err := op.Probe(context.Background(), snap)
	require.NoError(t, err)

	_, err = op.Apply(context.Background(), snap, probe)
	require.NoError(t, err)
	assert.True(t, exec.Called("apt-get install -y network-manager"))

	setting, err := op.currentRenderer()
	require.NoError(t, err)
	assert.True(t, setting.Equals("NetworkManager"))
}

func TestApplySkipsInstallWhenPackagePresent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "renderer.yaml")
	exec := installedFake()
	op := New(path, exec)
	snap := testSnapshot(t)

	probe, err := op.Probe(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, probe.NeedsAction)

	_, err = op.Apply(context.Background(), snap, probe)
	require.NoError(t, err)
	assert.False(t, exec.Called("apt-get"))
	require.NoError(t, op.Verify(context.Background(), snap))
}

func TestApplyFailsWhenInstallFails(t *testing.T) {
	t.Parallel()

	exec := &hostexec.Fake{Responses: map[string]hostexec.Response{
		"dpkg-query -W network-manager": {Err: exitOne},
		"apt-get install -y network-manager": {
			Result: hostexec.Result{Stderr: "E: Unable to locate package"},
			Err:    errors.New("exit status 100"),
		},
	}}
	op := New(filepath.Join(t.TempDir(), "renderer.yaml"), exec)
	snap := testSnapshot(t)

	probe, err := op.Probe(context.Background(), snap)
	require.NoError(t, err)

	_, err = op.Apply(context.Background(), snap, probe)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to locate package")
}
