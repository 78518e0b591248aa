package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newCheckCmd(root *rootFlags) *cobra.Command {
	flags := &snapshotFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the host and report drift without applying changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := resolveSnapshot(cmd, flags)
			if err != nil {
				return err
			}
			return tuneRunner(runOptions{
				Snapshot:       snap,
				Verbose:        root.verbose,
				NonInteractive: !term.IsTerminal(int(os.Stdout.Fd())),
				ProbeOnly:      true,
			})
		},
	}

	registerSnapshotFlags(cmd, flags)

	return cmd
}
