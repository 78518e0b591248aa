package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/hostexec"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	"github.com/alexisbeaulieu97/boardtune/internal/operations/display"
	"github.com/alexisbeaulieu97/boardtune/internal/operations/firmware"
	"github.com/alexisbeaulieu97/boardtune/internal/operations/fstab"
	"github.com/alexisbeaulieu97/boardtune/internal/operations/governor"
	"github.com/alexisbeaulieu97/boardtune/internal/operations/greeter"
	"github.com/alexisbeaulieu97/boardtune/internal/operations/netconf"
	"github.com/alexisbeaulieu97/boardtune/internal/operations/services"
)

// Operation payloads are static configuration data, not engine logic. The
// sequence order is deliberate: the overlay install comes after the cheap
// file edits so a hung fetch cannot delay them.
var disableList = []string{
	"bluetooth.service",
	"triggerhappy.service",
	"avahi-daemon.service",
}

var overlayPayload = firmware.Payload{
	ArtifactPath:  "/boot/overlays/boardtune.dtbo",
	RepoURL:       "https://github.com/alexisbeaulieu97/boardtune-overlays.git",
	BuildTarget:   "overlays",
	BuiltArtifact: "build/boardtune.dtbo",
}

var monitorPayload = display.Payload{
	Output: "HDMI-1",
	Rotate: "left",
	Mode:   "1920x1080",
}

// newOperationSequence builds the fixed operation order executed by apply
// and check.
func newOperationSequence(exec hostexec.Runner) []operation.Operation {
	return []operation.Operation{
		governor.New("", exec),
		fstab.New("", "/", exec),
		services.New(disableList, exec),
		netconf.New("", exec),
		display.New("", monitorPayload),
		greeter.New("", exec),
		firmware.New(overlayPayload, exec),
	}
}

// operationNames projects the sequence for progress rendering.
func operationNames(ops []operation.Operation) []string {
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, op.Metadata().Name)
	}
	return names
}

// snapshotFlags holds CLI values overlaid on the environment-derived
// snapshot. Only flags the user actually set are applied, so flag defaults
// never mask BOARDTUNE_* overrides.
type snapshotFlags struct {
	governor string
	user     string

	governorUnit    bool
	noatime         bool
	disableServices bool
	networkManager  bool
	firmware        bool
	displayLayout   bool
	greeterLogin    bool
}

func registerSnapshotFlags(cmd *cobra.Command, f *snapshotFlags) {
	cmd.Flags().StringVar(&f.governor, "governor", "ondemand", "CPU frequency governor to pin")
	cmd.Flags().StringVar(&f.user, "user", "", "Account used for autologin")

	cmd.Flags().BoolVar(&f.governorUnit, "governor-unit", true, "Reconcile the CPU governor unit")
	cmd.Flags().BoolVar(&f.noatime, "noatime", true, "Add noatime to the root filesystem")
	cmd.Flags().BoolVar(&f.disableServices, "disable-services", true, "Disable the stock service list")
	cmd.Flags().BoolVar(&f.networkManager, "network-manager", true, "Switch the netplan renderer to NetworkManager")
	cmd.Flags().BoolVar(&f.firmware, "firmware", true, "Build and install the device-tree overlay")
	cmd.Flags().BoolVar(&f.displayLayout, "display", false, "Write the X11 monitor layout snippet")
	cmd.Flags().BoolVar(&f.greeterLogin, "greeter", false, "Configure lightdm autologin (requires --user)")
}

// resolveSnapshot layers changed flags over environment defaults and
// validates the result before any operation runs.
func resolveSnapshot(cmd *cobra.Command, f *snapshotFlags) (*config.Snapshot, error) {
	snap, err := config.Defaults()
	if err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("governor") {
		snap.Governor = f.governor
	}
	if set("user") {
		snap.User = f.user
	}
	if set("governor-unit") {
		snap.GovernorUnit = f.governorUnit
	}
	if set("noatime") {
		snap.Noatime = f.noatime
	}
	if set("disable-services") {
		snap.DisableServices = f.disableServices
	}
	if set("network-manager") {
		snap.NetworkManager = f.networkManager
	}
	if set("firmware") {
		snap.Firmware = f.firmware
	}
	if set("display") {
		snap.Display = f.displayLayout
	}
	if set("greeter") {
		snap.Greeter = f.greeterLogin
	}

	if err := config.Validate(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
