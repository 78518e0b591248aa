// Package governor reconciles the systemd unit that pins the CPU frequency
// governor at boot. The probe parses the generated unit file into a typed
// current-state record instead of pattern-matching ad hoc, so a unit written
// by an older release with different surrounding text still compares cleanly.
package governor

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/fileops"
	"github.com/alexisbeaulieu97/boardtune/internal/hostexec"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// DefaultUnitPath is where the generated governor unit lives.
const DefaultUnitPath = "/etc/systemd/system/cpu-governor.service"

const unitName = "cpu-governor.service"

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=Pin CPU frequency scaling governor
After=multi-user.target

[Service]
Type=oneshot
ExecStart=/bin/sh -c 'echo {{.Governor}} | tee /sys/devices/system/cpu/cpu*/cpufreq/scaling_governor'
RemainAfterExit=yes

[Install]
WantedBy=multi-user.target
`))

// Operation reconciles the governor unit file and its enablement.
type Operation struct {
	unitPath string
	exec     hostexec.Runner
}

var _ operation.Operation = (*Operation)(nil)

// New creates the governor operation.
func New(unitPath string, exec hostexec.Runner) *Operation {
	if unitPath == "" {
		unitPath = DefaultUnitPath
	}
	return &Operation{unitPath: unitPath, exec: exec}
}

// Metadata returns the operation identity.
func (o *Operation) Metadata() operation.Metadata {
	return operation.Metadata{
		Name:        "cpu-governor",
		Description: "pin the CPU frequency governor via a systemd unit",
	}
}

// Guard runs the operation only when the governor unit toggle is enabled.
func (o *Operation) Guard(snap *config.Snapshot) bool {
	return snap.GovernorUnit
}

// Probe parses the existing unit, if any, and checks enablement. Satisfied
// only when the unit configures the requested governor and is enabled.
func (o *Operation) Probe(ctx context.Context, snap *config.Snapshot) (*model.Probe, error) {
	state, err := fileops.ReadState(o.unitPath)
	if err != nil {
		return nil, err
	}

	if !state.Exists {
		return model.Missing("governor unit not installed", nil), nil
	}

	current := ParseUnit(state.Content)
	if !current.Equals(snap.Governor) {
		got := "no governor"
		if v, ok := current.Value(); ok {
			got = v
		}
		return model.Drifted(fmt.Sprintf("unit configures %s, want %s", got, snap.Governor), nil), nil
	}

	enabled, err := o.unitEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return model.Drifted(fmt.Sprintf("unit configures %s but is not enabled", snap.Governor), nil), nil
	}

	return model.Satisfied(fmt.Sprintf("governor %s configured and enabled", snap.Governor)), nil
}

// Apply rewrites the unit for the requested governor and (re)enables it.
func (o *Operation) Apply(ctx context.Context, snap *config.Snapshot, _ *model.Probe) (*operation.Report, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, struct{ Governor string }{snap.Governor}); err != nil {
		return nil, boardtuneerrors.NewExecutionError(o.Metadata().Name, err)
	}

	if err := fileops.WriteAtomic(o.unitPath, buf.Bytes(), 0o644); err != nil {
		return nil, boardtuneerrors.NewExecutionError(o.Metadata().Name, fmt.Errorf("write unit: %w", err))
	}

	if res, err := o.exec.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return nil, boardtuneerrors.NewExecutionError(o.Metadata().Name,
			fmt.Errorf("daemon-reload: %w: %s", err, res.PrimaryOutput()))
	}

	if res, err := o.exec.Run(ctx, "systemctl", "enable", "--now", unitName); err != nil {
		return nil, boardtuneerrors.NewExecutionError(o.Metadata().Name,
			fmt.Errorf("enable unit: %w: %s", err, res.PrimaryOutput()))
	}

	return &operation.Report{Message: fmt.Sprintf("governor set to %s", snap.Governor)}, nil
}

// Verify re-parses the unit and re-checks enablement.
func (o *Operation) Verify(ctx context.Context, snap *config.Snapshot) error {
	state, err := fileops.ReadState(o.unitPath)
	if err != nil || !state.Exists {
		return boardtuneerrors.NewVerificationError(o.Metadata().Name, "unit file absent after apply")
	}

	if current := ParseUnit(state.Content); !current.Equals(snap.Governor) {
		return boardtuneerrors.NewVerificationError(o.Metadata().Name,
			fmt.Sprintf("unit does not configure %s after apply", snap.Governor))
	}

	enabled, err := o.unitEnabled(ctx)
	if err != nil {
		return boardtuneerrors.NewVerificationError(o.Metadata().Name, fmt.Sprintf("enablement check failed: %v", err))
	}
	if !enabled {
		return boardtuneerrors.NewVerificationError(o.Metadata().Name, "unit not enabled after apply")
	}
	return nil
}

// unitEnabled asks the service manager whether the unit is enabled. A
// non-zero exit with a recognisable state on stdout (disabled, not-found) is
// an answer, not an error.
func (o *Operation) unitEnabled(ctx context.Context) (bool, error) {
	res, err := o.exec.Run(ctx, "systemctl", "is-enabled", unitName)
	if err != nil {
		if res.Stdout != "" || hostexec.IsUnitNotFound(res, err) {
			return false, nil
		}
		return false, fmt.Errorf("systemctl is-enabled: %w: %s", err, res.PrimaryOutput())
	}
	return res.Stdout == "enabled", nil
}
