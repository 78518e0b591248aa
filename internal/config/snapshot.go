package config

import (
	"github.com/caarlos0/env/v11"

	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// Snapshot is the resolved invocation configuration consumed by operation
// guards. It is built once per run, validated before any operation executes,
// and never mutated afterwards.
type Snapshot struct {
	// Governor selects the CPU frequency governor the governor unit should
	// pin at boot.
	Governor string `env:"GOVERNOR" envDefault:"ondemand" validate:"required,governor"`

	// GovernorUnit controls whether the governor systemd unit is reconciled.
	GovernorUnit bool `env:"GOVERNOR_UNIT" envDefault:"true"`

	// Noatime controls whether the root filesystem gains the noatime mount
	// option.
	Noatime bool `env:"NOATIME" envDefault:"true"`

	// DisableServices controls the best-effort disabling of the stock
	// service list.
	DisableServices bool `env:"DISABLE_SERVICES" envDefault:"true"`

	// NetworkManager controls switching the netplan renderer to
	// NetworkManager.
	NetworkManager bool `env:"NETWORK_MANAGER" envDefault:"true"`

	// Firmware controls building and installing the device-tree overlay
	// artifacts.
	Firmware bool `env:"FIRMWARE" envDefault:"true"`

	// Display controls writing the X11 monitor layout snippet.
	Display bool `env:"DISPLAY_LAYOUT" envDefault:"false"`

	// Greeter controls lightdm autologin reconciliation. Requires User.
	Greeter bool `env:"GREETER" envDefault:"false"`

	// User is the account used for autologin and display configuration.
	User string `env:"USER_NAME" validate:"omitempty,unixuser"`
}

// Defaults returns a snapshot populated from built-in defaults overlaid with
// any BOARDTUNE_* environment overrides. Flag values are applied on top by
// the CLI before Validate seals the snapshot.
func Defaults() (Snapshot, error) {
	var snap Snapshot
	if err := env.ParseWithOptions(&snap, env.Options{Prefix: "BOARDTUNE_"}); err != nil {
		return Snapshot{}, boardtuneerrors.NewValidationError("", "invalid environment override", err)
	}
	return snap, nil
}

// Validate checks the snapshot against the schema. It must pass before any
// operation runs; a failure here is fatal and precedes all host mutation.
func Validate(snap *Snapshot) error {
	if err := validatorInstance().Struct(snap); err != nil {
		return describeValidationError(err)
	}
	if snap.Greeter && snap.User == "" {
		return boardtuneerrors.NewValidationError("user", "greeter autologin requires --user", nil)
	}
	return nil
}
