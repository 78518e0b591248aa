package hostexec

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// Result captures stdout/stderr emitted by a completed command.
type Result struct {
	Stdout string
	Stderr string
}

// PrimaryOutput returns stderr if present, otherwise stdout. External tools
// tend to put the interesting diagnostics on stderr.
func (r Result) PrimaryOutput() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Runner executes external host commands (systemctl, apt-get, findmnt,
// mount, make). Operations depend on this interface so tests can substitute
// a scripted fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// System runs commands against the live host.
type System struct{}

var _ Runner = System{}

// Run executes the command, buffering both output streams.
func (System) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	return Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}, err
}

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// IsUnitNotFound reports whether a systemctl invocation failed because the
// named unit does not exist, as opposed to the manager rejecting the
// request. Missing units are benign for best-effort reconciliation.
func IsUnitNotFound(res Result, err error) bool {
	if err == nil {
		return false
	}
	out := strings.ToLower(res.PrimaryOutput())
	return strings.Contains(out, "does not exist") ||
		strings.Contains(out, "not-found") ||
		strings.Contains(out, "no such file or directory") ||
		strings.Contains(out, "not loaded")
}
