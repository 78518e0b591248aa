// Package greeter reconciles lightdm autologin for the configured user and
// makes sure the display manager starts at boot. The greeter config is INI;
// it is loaded and edited structurally so unrelated keys survive untouched.
package greeter

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/fileops"
	"github.com/alexisbeaulieu97/boardtune/internal/hostexec"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// DefaultConfPath is the lightdm configuration file.
const DefaultConfPath = "/etc/lightdm/lightdm.conf"

const (
	seatSection  = "Seat:*"
	autologinKey = "autologin-user"
	unitName     = "lightdm.service"
)

// Operation reconciles greeter autologin.
type Operation struct {
	confPath string
	exec     hostexec.Runner
}

var _ operation.Operation = (*Operation)(nil)

// New creates the greeter operation.
func New(confPath string, exec hostexec.Runner) *Operation {
	if confPath == "" {
		confPath = DefaultConfPath
	}
	return &Operation{confPath: confPath, exec: exec}
}

// Metadata returns the operation identity.
func (o *Operation) Metadata() operation.Metadata {
	return operation.Metadata{
		Name:        "greeter-autologin",
		Description: "configure lightdm autologin for the kiosk user",
	}
}

// Guard requires both the greeter toggle and a user; the snapshot validator
// already rejects greeter without user, so the second check is load-bearing
// only for hand-built snapshots.
func (o *Operation) Guard(snap *config.Snapshot) bool {
	return snap.Greeter && snap.User != ""
}

// probeData records which halves of the desired state are missing.
type probeData struct {
	needConfig bool
	needEnable bool
}

// Probe parses the greeter config and checks display manager enablement.
func (o *Operation) Probe(ctx context.Context, snap *config.Snapshot) (*model.Probe, error) {
	current, err := o.currentAutologin()
	if err != nil {
		return nil, err
	}

	enabled, err := o.unitEnabled(ctx)
	if err != nil {
		return nil, err
	}

	data := &probeData{
		needConfig: !current.Equals(snap.User),
		needEnable: !enabled,
	}

	if !data.needConfig && !data.needEnable {
		return model.Satisfied(fmt.Sprintf("autologin configured for %s", snap.User)), nil
	}
	if data.needConfig && current.Configured() {
		got, _ := current.Value()
		return model.Drifted(fmt.Sprintf("autologin user is %s, want %s", got, snap.User), data), nil
	}
	return model.Missing("greeter autologin not configured", data), nil
}

// Apply edits the greeter config structurally and enables the display
// manager.
func (o *Operation) Apply(ctx context.Context, snap *config.Snapshot, probe *model.Probe) (*operation.Report, error) {
	name := o.Metadata().Name

	data, ok := probe.Data.(*probeData)
	if !ok || data == nil {
		return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("probe data missing"))
	}

	if data.needConfig {
		state, err := fileops.ReadState(o.confPath)
		if err != nil {
			return nil, boardtuneerrors.NewExecutionError(name, err)
		}

		cfg, err := ini.Load([]byte(state.Content))
		if err != nil {
			return nil, boardtuneerrors.NewParseError(o.confPath, 0, err)
		}
		cfg.Section(seatSection).Key(autologinKey).SetValue(snap.User)

		var buf bytes.Buffer
		if _, err := cfg.WriteTo(&buf); err != nil {
			return nil, boardtuneerrors.NewExecutionError(name, err)
		}
		if err := fileops.WriteAtomic(o.confPath, buf.Bytes(), state.Permissions); err != nil {
			return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("write greeter config: %w", err))
		}
	}

	if data.needEnable {
		if res, err := o.exec.Run(ctx, "systemctl", "enable", unitName); err != nil {
			return nil, boardtuneerrors.NewExecutionError(name,
				fmt.Errorf("enable %s: %w: %s", unitName, err, res.PrimaryOutput()))
		}
	}

	return &operation.Report{Message: fmt.Sprintf("autologin set to %s", snap.User)}, nil
}

// Verify re-checks the autologin key and enablement.
func (o *Operation) Verify(ctx context.Context, snap *config.Snapshot) error {
	name := o.Metadata().Name

	current, err := o.currentAutologin()
	if err != nil || !current.Equals(snap.User) {
		return boardtuneerrors.NewVerificationError(name,
			fmt.Sprintf("autologin user not %s after apply", snap.User))
	}

	enabled, err := o.unitEnabled(ctx)
	if err != nil || !enabled {
		return boardtuneerrors.NewVerificationError(name, fmt.Sprintf("%s not enabled after apply", unitName))
	}
	return nil
}

// currentAutologin extracts the configured autologin user as a typed
// setting.
func (o *Operation) currentAutologin() (model.Setting, error) {
	state, err := fileops.ReadState(o.confPath)
	if err != nil {
		return model.NotConfigured(), err
	}
	if !state.Exists {
		return model.NotConfigured(), nil
	}

	cfg, err := ini.Load([]byte(state.Content))
	if err != nil {
		return model.NotConfigured(), boardtuneerrors.NewParseError(o.confPath, 0, err)
	}

	value := cfg.Section(seatSection).Key(autologinKey).String()
	if value == "" {
		return model.NotConfigured(), nil
	}
	return model.ConfiguredWith(value), nil
}

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
