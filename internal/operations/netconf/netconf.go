// Package netconf switches the netplan renderer to NetworkManager and makes
// sure the NetworkManager package is installed first. The renderer file is
// parsed as YAML rather than pattern-matched, so hand-edited files with
// extra stanzas still compare correctly.
package netconf

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/fileops"
	"github.com/alexisbeaulieu97/boardtune/internal/hostexec"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// DefaultConfigPath is the generated netplan renderer file.
const DefaultConfigPath = "/etc/netplan/01-boardtune-renderer.yaml"

const (
	renderer    = "NetworkManager"
	packageName = "network-manager"
)

// rendererDoc is the netplan document this operation owns.
type rendererDoc struct {
	Network struct {
		Version  int    `yaml:"version"`
		Renderer string `yaml:"renderer"`
	} `yaml:"network"`
}

// Operation reconciles the network renderer backend.
type Operation struct {
	configPath string
	exec       hostexec.Runner
}

var _ operation.Operation = (*Operation)(nil)

// New creates the netconf operation.
func New(configPath string, exec hostexec.Runner) *Operation {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return &Operation{configPath: configPath, exec: exec}
}

// Metadata returns the operation identity.
func (o *Operation) Metadata() operation.Metadata {
	return operation.Metadata{
		Name:        "network-renderer",
		Description: "switch the netplan renderer to NetworkManager",
	}
}

// Guard runs the operation only when the NetworkManager toggle is enabled.
func (o *Operation) Guard(snap *config.Snapshot) bool {
	return snap.NetworkManager
}

// probeData records which halves of the desired state are missing.
type probeData struct {
	needPackage bool
	needConfig  bool
}

// Probe checks the renderer file and the package database.
func (o *Operation) Probe(ctx context.Context, _ *config.Snapshot) (*model.Probe, error) {
	data := &probeData{}

	installed, err := o.packageInstalled(ctx)
	if err != nil {
		return nil, err
	}
	data.needPackage = !installed

	current, err := o.currentRenderer()
	if err != nil {
		return nil, err
	}
	data.needConfig = !current.Equals(renderer)

	switch {
	case !data.needPackage && !data.needConfig:
		return model.Satisfied(fmt.Sprintf("renderer is %s and %s installed", renderer, packageName)), nil
	case data.needConfig && current.Configured():
		got, _ := current.Value()
		return model.Drifted(fmt.Sprintf("renderer is %s, want %s", got, renderer), data), nil
	default:
		return model.Missing(describeMissing(data), data), nil
	}
}

// Apply installs the package when needed, then writes the renderer file.
func (o *Operation) Apply(ctx context.Context, _ *config.Snapshot, probe *model.Probe) (*operation.Report, error) {
	name := o.Metadata().Name

	data, ok := probe.Data.(*probeData)
	if !ok || data == nil {
		return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("probe data missing"))
	}

	if data.needPackage {
		if res, err := o.exec.Run(ctx, "apt-get", "install", "-y", packageName); err != nil {
			return nil, boardtuneerrors.NewExecutionError(name,
				fmt.Errorf("install %s: %w: %s", packageName, err, res.PrimaryOutput()))
		}
	}

	if data.needConfig {
		var doc rendererDoc
		doc.Network.Version = 2
		doc.Network.Renderer = renderer

		out, err := yaml.Marshal(&doc)
		if err != nil {
			return nil, boardtuneerrors.NewExecutionError(name, err)
		}
		if err := fileops.WriteAtomic(o.configPath, out, 0o600); err != nil {
			return nil, boardtuneerrors.NewExecutionError(name, fmt.Errorf("write renderer config: %w", err))
		}
	}

	return &operation.Report{Message: fmt.Sprintf("renderer set to %s", renderer)}, nil
}

// Verify re-checks both halves of the desired state.
func (o *Operation) Verify(ctx context.Context, _ *config.Snapshot) error {
	name := o.Metadata().Name

	installed, err := o.packageInstalled(ctx)
	if err != nil || !installed {
		return boardtuneerrors.NewVerificationError(name, fmt.Sprintf("%s not installed after apply", packageName))
	}

	current, err := o.currentRenderer()
	if err != nil || !current.Equals(renderer) {
		return boardtuneerrors.NewVerificationError(name, fmt.Sprintf("renderer not %s after apply", renderer))
	}
	return nil
}

// currentRenderer parses the renderer file into a typed setting.
func (o *Operation) currentRenderer() (model.Setting, error) {
	state, err := fileops.ReadState(o.configPath)
	if err != nil {
		return model.NotConfigured(), err
	}
	if !state.Exists {
		return model.NotConfigured(), nil
	}

	var doc rendererDoc
	if err := yaml.Unmarshal([]byte(state.Content), &doc); err != nil {
		return model.NotConfigured(), boardtuneerrors.NewParseError(o.configPath, 0, err)
	}
	if doc.Network.Renderer == "" {
		return model.NotConfigured(), nil
	}
	return model.ConfiguredWith(doc.Network.Renderer), nil
}

// packageInstalled asks the package database about the prerequisite. Only
// the command's pass/fail is consumed.
func (o *Operation) packageInstalled(ctx context.Context) (bool, error) {
	_, err := o.exec.Run(ctx, "dpkg-query", "-W", packageName)
	if err != nil {
		if hostexec.IsCommandNotFound(err) {
			return false, fmt.Errorf("dpkg-query unavailable: %w", err)
		}
		return false, nil
	}
	return true, nil
}

func describeMissing(data *probeData) string {
	switch {
	case data.needPackage && data.needConfig:
		return fmt.Sprintf("%s not installed and renderer not configured", packageName)
	case data.needPackage:
		return fmt.Sprintf("%s not installed", packageName)
	default:
		return "renderer not configured"
	}
}
