// Package firmware installs a device-tree overlay artifact built from a
// pinned source revision. The probe is a cheap presence check; the apply is
// a chain of external sub-steps (clone, checkout, build, install) where the
// first failure aborts the rest. Nothing touches existing host state until
// the final install, so no rollback is needed.
package firmware

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/fileops"
	"github.com/alexisbeaulieu97/boardtune/internal/hostexec"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// Payload describes the overlay source and destination. It is configuration
// data supplied by the sequence author, not engine logic.
type Payload struct {
	// ArtifactPath is the installed overlay the probe checks for.
	ArtifactPath string
	// RepoURL is the overlay source repository.
	RepoURL string
	// Revision pins the commit to build from. Empty means the default
	// branch head.
	Revision string
	// BuildTarget is the make target producing the artifact. Empty skips
	// the build step for repositories that ship the artifact prebuilt.
	BuildTarget string
	// BuiltArtifact is the artifact's path relative to the clone root.
	BuiltArtifact string
}

// Operation builds and installs one overlay artifact.
type Operation struct {
	payload Payload
	exec    hostexec.Runner
}

var _ operation.Operation = (*Operation)(nil)

// New creates the firmware operation.
func New(payload Payload, exec hostexec.Runner) *Operation {
	return &Operation{payload: payload, exec: exec}
}

// Metadata returns the operation identity.
func (o *Operation) Metadata() operation.Metadata {
	return operation.Metadata{
		Name:        "firmware-overlay",
		Description: "build and install the device-tree overlay artifact",
	}
}

// Guard runs the operation only when the firmware toggle is enabled.
func (o *Operation) Guard(snap *config.Snapshot) bool {
	return snap.Firmware
}

// Probe checks for the installed artifact.
func (o *Operation) Probe(_ context.Context, _ *config.Snapshot) (*model.Probe, error) {
	if _, err := os.Stat(o.payload.ArtifactPath); err == nil {
		return model.Satisfied(fmt.Sprintf("%s already installed", filepath.Base(o.payload.ArtifactPath))), nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return model.Missing(fmt.Sprintf("%s not installed", filepath.Base(o.payload.ArtifactPath)), nil), nil
}

// Apply clones the source, checks out the pinned revision, builds, and
// installs. Each sub-step failure aborts the remaining steps.
func (o *Operation) Apply(ctx context.Context, _ *config.Snapshot, _ *model.Probe) (*operation.Report, error) {
	name := o.Metadata().Name

	workDir, err := os.MkdirTemp("", "boardtune-overlay-*")
	if err != nil {
		return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("create work dir: %w", err))
	}
	defer os.RemoveAll(workDir)

	repo, err := git.PlainCloneContext(ctx, workDir, false, &git.CloneOptions{URL: o.payload.RepoURL})
	if err != nil {
		return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("clone %s: %w", o.payload.RepoURL, err))
	}

	if o.payload.Revision != "" {
		worktree, err := repo.Worktree()
		if err != nil {
			return nil, boardtuneerrors.NewExecutionError(name, err)
		}
		if err := worktree.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(o.payload.Revision)}); err != nil {
			return nil, boardtuneerrors.NewExecutionError(name,
				fmt.Errorf("checkout %s: %w", o.payload.Revision, err))
		}
	}

	if o.payload.BuildTarget != "" {
		if res, err := o.exec.Run(ctx, "make", "-C", workDir, o.payload.BuildTarget); err != nil {
			return nil, boardtuneerrors.NewExecutionError(name,
				fmt.Errorf("build %s: %w: %s", o.payload.BuildTarget, err, res.PrimaryOutput()))
		}
	}

	built := filepath.Join(workDir, o.payload.BuiltArtifact)
	data, err := os.ReadFile(built)
	if err != nil {
		return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("built artifact missing: %w", err))
	}
	if err := fileops.WriteAtomic(o.payload.ArtifactPath, data, 0o644); err != nil {
		return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("install artifact: %w", err))
	}

	return &operation.Report{
		Message: fmt.Sprintf("installed %s", filepath.Base(o.payload.ArtifactPath)),
	}, nil
}

// Verify confirms the artifact is installed.
func (o *Operation) Verify(_ context.Context, _ *config.Snapshot) error {
	if _, err := os.Stat(o.payload.ArtifactPath); err != nil {
		return boardtuneerrors.NewVerificationError(o.Metadata().Name, "artifact absent after apply")
	}
	return nil
}
