package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/engine"
	"github.com/alexisbeaulieu97/boardtune/internal/hostexec"
	"github.com/alexisbeaulieu97/boardtune/internal/logger"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/tui"
)

type runOptions struct {
	Snapshot       *config.Snapshot
	Verbose        bool
	NonInteractive bool
	ProbeOnly      bool
}

var tuneRunner = runTune

func newApplyCmd(root *rootFlags) *cobra.Command {
	flags := &snapshotFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the host configuration sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := resolveSnapshot(cmd, flags)
			if err != nil {
				return err
			}
			return tuneRunner(runOptions{
				Snapshot:       snap,
				Verbose:        root.verbose,
				NonInteractive: !term.IsTerminal(int(os.Stdout.Fd())),
			})
		},
	}

	registerSnapshotFlags(cmd, flags)

	return cmd
}

func runTune(opts runOptions) error {
	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ops := newOperationSequence(hostexec.System{})
	modelState := tui.NewModel(operationNames(ops))
	interactive := !opts.NonInteractive

	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		program = tea.NewProgram(modelState)
		go func() {
			_, programErr = program.Run()
			close(done)
		}()
	}

	runnerOpts := []engine.Option{
		engine.WithNotify(func(res model.OperationResult) {
			dispatchTUIMessage(program, &modelState, tui.OperationCompleteMsg{Result: res})
		}),
	}
	if opts.ProbeOnly {
		runnerOpts = append(runnerOpts, engine.WithProbeOnly())
	}

	runner := engine.NewRunner(log, runnerOpts...)
	rec := runner.RunAll(ctx, ops, opts.Snapshot)

	dispatchTUIMessage(program, &modelState, tui.RunCompleteMsg{Recorder: rec})

	if interactive {
		program.Send(tea.QuitMsg{})
		<-done
		if programErr != nil {
			return programErr
		}
	} else {
		fmt.Fprintln(os.Stdout, modelState.View())
	}

	if n := rec.FailureCount(); n > 0 {
		return fmt.Errorf("%d of %d operations failed", n, rec.Total())
	}
	return nil
}

// dispatchTUIMessage routes a message to the running program, or applies it
// directly to the model when no program is attached.
func dispatchTUIMessage(program *tea.Program, m *tui.Model, msg tea.Msg) {
	if program != nil {
		program.Send(msg)
		return
	}
	next, _ := m.Update(msg)
	if out, ok := next.(tui.Model); ok {
		*m = out
	}
}
