// Package display writes the X11 monitor layout snippet for the board's
// panel. The probe parses the generated snippet for the rotate option
// rather than comparing raw text, so cosmetic edits do not force a rewrite.
package display

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/alexisbeaulieu97/boardtune/internal/config"
	"github.com/alexisbeaulieu97/boardtune/internal/fileops"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
	"github.com/alexisbeaulieu97/boardtune/internal/operation"
	boardtuneerrors "github.com/alexisbeaulieu97/boardtune/pkg/errors"
)

// DefaultConfPath is the generated xorg snippet.
const DefaultConfPath = "/etc/X11/xorg.conf.d/90-boardtune-monitor.conf"

var confTemplate = template.Must(template.New("monitor").Parse(`Section "Monitor"
    Identifier "{{.Output}}"
    Option "Rotate" "{{.Rotate}}"
    Option "PreferredMode" "{{.Mode}}"
EndSection
`))

var rotatePattern = regexp.MustCompile(`Option\s+"Rotate"\s+"([a-z]+)"`)

// Payload is the monitor layout configuration data.
type Payload struct {
	Output string
	Rotate string
	Mode   string
}

// Operation reconciles the monitor layout snippet.
type Operation struct {
	confPath string
	payload  Payload
}

var _ operation.Operation = (*Operation)(nil)

// New creates the display operation.
func New(confPath string, payload Payload) *Operation {
	if confPath == "" {
		confPath = DefaultConfPath
	}
	return &Operation{confPath: confPath, payload: payload}
}

// Metadata returns the operation identity.
func (o *Operation) Metadata() operation.Metadata {
	return operation.Metadata{
		Name:        "display-layout",
		Description: "write the X11 monitor layout snippet",
	}
}

// Guard runs the operation only when the display toggle is enabled.
func (o *Operation) Guard(snap *config.Snapshot) bool {
	return snap.Display
}

// ParseRotate extracts the configured rotation from snippet content.
func ParseRotate(content string) model.Setting {
	for _, line := range strings.Split(content, "\n") {
		if m := rotatePattern.FindStringSubmatch(line); m != nil {
			return model.ConfiguredWith(m[1])
		}
	}
	return model.NotConfigured()
}

// Probe parses the existing snippet, if any.
func (o *Operation) Probe(_ context.Context, _ *config.Snapshot) (*model.Probe, error) {
	state, err := fileops.ReadState(o.confPath)
	if err != nil {
		return nil, err
	}
	if !state.Exists {
		return model.Missing("monitor snippet not installed", nil), nil
	}

	current := ParseRotate(state.Content)
	if current.Equals(o.payload.Rotate) {
		return model.Satisfied(fmt.Sprintf("rotation already %s", o.payload.Rotate)), nil
	}

	got := "no rotation"
	if v, ok := current.Value(); ok {
		got = v
	}
	return model.Drifted(fmt.Sprintf("rotation is %s, want %s", got, o.payload.Rotate), nil), nil
}

// Apply renders and writes the snippet.
func (o *Operation) Apply(_ context.Context, _ *config.Snapshot, _ *model.Probe) (*operation.Report, error) {
	var buf bytes.Buffer
	if err := confTemplate.Execute(&buf, o.payload); err != nil {
		return nil, boardtuneerrors.NewExecutionError(o.Metadata().Name, err)
	}
	if err := fileops.WriteAtomic(o.confPath, buf.Bytes(), 0o644); err != nil {
		return nil, boardtuneerrors.NewExecutionError(o.Metadata().Name, fmt.Errorf("write snippet: %w", err))
	}
	return &operation.Report{Message: fmt.Sprintf("monitor layout written (rotate %s)", o.payload.Rotate)}, nil
}

// Verify re-parses the snippet for the desired rotation.
func (o *Operation) Verify(_ context.Context, _ *config.Snapshot) error {
	state, err := fileops.ReadState(o.confPath)
	if err != nil || !state.Exists {
		return boardtuneerrors.NewVerificationError(o.Metadata().Name, "snippet absent after apply")
	}
	if !ParseRotate(state.Content).Equals(o.payload.Rotate) {
		return boardtuneerrors.NewVerificationError(o.Metadata().Name,
			fmt.Sprintf("rotation not %s after apply", o.payload.Rotate))
	}
	return nil
}
