// Package fstab reconciles the root filesystem's noatime mount option. The
// edit is scoped to the row whose spec matches the resolved root UUID, and
// the apply commits only after a trial remount proves the new options are
// accepted; a rejected remount rolls the table back byte-identically.
package fstab

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/fileops"
	"github.com/alexisbeaulieu97/boardtune/internal/hostexec"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// DefaultPath is the persisted mount table.
const DefaultPath = "/etc/fstab"

const option = "noatime"

// Operation adds noatime to the root filesystem's fstab entry.
type Operation struct {
	fstabPath  string
	mountPoint string
	exec       hostexec.Runner
}

var _ operation.Operation = (*Operation)(nil)

// New creates the fstab operation.
func New(fstabPath, mountPoint string, exec hostexec.Runner) *Operation {
	if fstabPath == "" {
		fstabPath = DefaultPath
	}
	if mountPoint == "" {
		mountPoint = "/"
	}
	return &Operation{fstabPath: fstabPath, mountPoint: mountPoint, exec: exec}
}

// Metadata returns the operation identity.
func (o *Operation) Metadata() operation.Metadata {
	return operation.Metadata{
		Name:        "fstab-noatime",
		Description: "add noatime to the root filesystem mount options",
	}
}

// Guard runs the operation only when the noatime toggle is enabled.
func (o *Operation) Guard(snap *config.Snapshot) bool {
	return snap.Noatime
}

// probeData carries the resolved spec and target entry from Probe to Apply.
type probeData struct {
	spec  string
	entry *Entry
	table *Table
}

// Probe resolves the root filesystem UUID and checks whether its fstab row
// already carries noatime. Inability to resolve identity is unactionable,
// not an error.
func (o *Operation) Probe(ctx context.Context, _ *config.Snapshot) (*model.Probe, error) {
	spec, ok := o.rootSpec(ctx)
	if !ok {
		return model.Unactionable("root filesystem UUID could not be resolved"), nil
	}

	state, err := fileops.ReadState(o.fstabPath)
	if err != nil {
		return nil, err
	}
	if !state.Exists {
		return model.Unactionable(fmt.Sprintf("%s does not exist", o.fstabPath)), nil
	}

	table := ParseTable(state.Content)
	entry, ok := table.EntryFor(spec)
	if !ok {
		return model.Unactionable(fmt.Sprintf("no mount table entry for %s", spec)), nil
	}

	if entry.HasOption(option) {
		return model.Satisfied(fmt.Sprintf("root entry already mounts with %s", option)), nil
	}

	return model.Drifted(fmt.Sprintf("root entry lacks %s (options: %s)", option, entry.Options()),
		&probeData{spec: spec, entry: entry, table: table}), nil
}

// Apply backs up the table, rewrites only the root entry, and commits via a
// trial remount. A rejected remount restores the backup and remounts with
// the original options before the failure is reported.
func (o *Operation) Apply(ctx context.Context, _ *config.Snapshot, probe *model.Probe) (*operation.Report, error) {
	name := o.Metadata().Name

	data, ok := probe.Data.(*probeData)
	if !ok || data == nil {
		return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("probe data missing"))
	}

	state, err := fileops.ReadState(o.fstabPath)
	if err != nil {
		return nil, boardtuneerrors.NewExecutionError(name, err)
	}

	backup, err := fileops.CreateBackup(o.fstabPath, []byte(state.Content), state.Permissions)
	if err != nil {
		return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("backup: %w", err))
	}

	updated := data.table.ReplaceLine(data.entry, data.entry.WithOption(option))
	if err := fileops.WriteAtomic(o.fstabPath, []byte(updated), state.Permissions); err != nil {
		return nil, boardtuneerrors.NewRollbackError(name, fmt.Errorf("write mount table: %w", err),
			fileops.Restore(backup, o.fstabPath))
	}

	// Trial remount proves the kernel accepts the new options before the
	// change is considered committed.
	if res, remountErr := o.exec.Run(ctx, "mount", "-o", "remount,"+option, o.mountPoint); remountErr != nil {
		restoreErr := fileops.Restore(backup, o.fstabPath)
		if _, compErr := o.exec.Run(ctx, "mount", "-o", "remount", o.mountPoint); compErr != nil && restoreErr == nil {
			restoreErr = fmt.Errorf("compensating remount: %w", compErr)
		}
		return nil, boardtuneerrors.NewRollbackError(name,
			fmt.Errorf("trial remount rejected: %w: %s", remountErr, res.PrimaryOutput()), restoreErr)
	}

	return &operation.Report{Message: fmt.Sprintf("%s added to root entry (backup at %s)", option, backup)}, nil
}

// Verify re-reads the table and confirms the root entry carries noatime.
func (o *Operation) Verify(ctx context.Context, _ *config.Snapshot) error {
	name := o.Metadata().Name

	spec, ok := o.rootSpec(ctx)
	if !ok {
		return boardtuneerrors.NewVerificationError(name, "root filesystem UUID no longer resolvable")
	}

	state, err := fileops.ReadState(o.fstabPath)
	if err != nil || !state.Exists {
		return boardtuneerrors.NewVerificationError(name, "mount table unreadable after apply")
	}

	entry, ok := ParseTable(state.Content).EntryFor(spec)
	if !ok {
		return boardtuneerrors.NewVerificationError(name, "root entry vanished after apply")
	}
	if !entry.HasOption(option) {
		return boardtuneerrors.NewVerificationError(name, fmt.Sprintf("%s still absent after apply", option))
	}
	return nil
}

// rootSpec resolves the mount point's UUID into the fstab spec form.
func (o *Operation) rootSpec(ctx context.Context) (string, bool) {
	res, err := o.exec.Run(ctx, "findmnt", "-no", "UUID", o.mountPoint)
	if err != nil || res.Stdout == "" {
		return "", false
	}
	return "UUID=" + res.Stdout, true
}
