// Package services disables a list of stock services best-effort. The list
// is one operation with one outcome: sub-targets that do not exist on this
// image are soft warnings, while a service manager that rejects a disable
// for a unit that does exist is a real failure.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/hostexec"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// Operation disables a fixed list of services.
type Operation struct {
	services []string
	exec     hostexec.Runner
}

var _ operation.Operation = (*Operation)(nil)

// New creates the service-disable operation for the given target list.
func New(services []string, exec hostexec.Runner) *Operation {
	return &Operation{services: services, exec: exec}
}

// Metadata returns the operation identity.
func (o *Operation) Metadata() operation.Metadata {
	return operation.Metadata{
		Name:        "disable-services",
		Description: "disable stock services that waste cycles on a headless board",
	}
}

// Guard runs the operation only when service disabling is enabled.
func (o *Operation) Guard(snap *config.Snapshot) bool {
	return snap.DisableServices
}

// batchProbe carries the per-sub-target classification from Probe to Apply.
type batchProbe struct {
	toDisable  []string
	notPresent []string
}

// Probe classifies every sub-target. The operation is satisfied only when
// no listed service remains enabled.
func (o *Operation) Probe(ctx context.Context, _ *config.Snapshot) (*model.Probe, error) {
	data := &batchProbe{}

	for _, svc := range o.services {
		res, err := o.exec.Run(ctx, "systemctl", "is-enabled", svc)
		switch {
		case err == nil && res.Stdout == "enabled":
			data.toDisable = append(data.toDisable, svc)
		case err == nil:
			// disabled, masked, static, alias: already in an acceptable state.
		case hostexec.IsUnitNotFound(res, err) || res.Stdout == "not-found":
			data.notPresent = append(data.notPresent, svc)
		case res.Stdout != "":
			// Any other reported enablement state counts as not enabled.
		default:
			// Query itself failed; let apply attempt the disable and
			// classify the result there.
			data.toDisable = append(data.toDisable, svc)
		}
	}

	if len(data.toDisable) == 0 {
		msg := "no listed services enabled"
		if len(data.notPresent) > 0 {
			msg = fmt.Sprintf("%s (%d not present)", msg, len(data.notPresent))
		}
		return model.Satisfied(msg), nil
	}

	return model.Drifted(fmt.Sprintf("%d services still enabled: %s",
		len(data.toDisable), strings.Join(data.toDisable, ", ")), data), nil
}

// Apply disables each remaining sub-target. Missing units are warnings; a
// disable the manager rejects for an existing unit fails the operation
// after all sub-targets have been attempted.
func (o *Operation) Apply(ctx context.Context, _ *config.Snapshot, probe *model.Probe) (*operation.Report, error) {
	name := o.Metadata().Name

	data, ok := probe.Data.(*batchProbe)
	if !ok || data == nil {
		return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("probe data missing"))
	}

	var disabled, rejected, warnings []string
	for _, svc := range data.toDisable {
		res, err := o.exec.Run(ctx, "systemctl", "disable", "--now", svc)
		switch {
		case err == nil:
			disabled = append(disabled, svc)
		case hostexec.IsUnitNotFound(res, err):
			warnings = append(warnings, fmt.Sprintf("%s not present, skipped", svc))
		default:
			rejected = append(rejected, fmt.Sprintf("%s: %s", svc, res.PrimaryOutput()))
		}
	}
	for _, svc := range data.notPresent {
		warnings = append(warnings, fmt.Sprintf("%s not present, skipped", svc))
	}

	if len(rejected) > 0 {
		return nil, boardtuneerrors.NewExecutionError(name,
			fmt.Errorf("service manager rejected %d disable(s): %s", len(rejected), strings.Join(rejected, "; ")))
	}

	return &operation.Report{
		Message:  fmt.Sprintf("disabled %d services", len(disabled)),
		Warnings: warnings,
	}, nil
}

// Verify confirms no listed service reports enabled any more.
func (o *Operation) Verify(ctx context.Context, _ *config.Snapshot) error {
	var stillEnabled []string
	for _, svc := range o.services {
		res, err := o.exec.Run(ctx, "systemctl", "is-enabled", svc)
		if err == nil && res.Stdout == "enabled" {
			stillEnabled = append(stillEnabled, svc)
		}
	}
	if len(stillEnabled) > 0 {
		return boardtuneerrors.NewVerificationError(o.Metadata().Name,
			fmt.Sprintf("still enabled after apply: %s", strings.Join(stillEnabled, ", ")))
	}
	return nil
}
