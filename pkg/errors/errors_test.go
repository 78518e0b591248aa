package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrorIncludesField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("governor", "unknown value \"turbo\"", nil)
	require.Contains(t, err.Error(), "governor")
	require.Contains(t, err.Error(), "turbo")
}

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("/etc/fstab", 12, underlying)

	var parseErr *ParseError
	require.True(t, stdErrors.As(err, &parseErr))
	require.Equal(t, 12, parseErr.Line)
	require.ErrorIs(t, err, underlying)
	require.Contains(t, err.Error(), "/etc/fstab:12")
}

func TestExecutionErrorNamesOperation(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("exit status 1")
	err := NewExecutionError("cpu-governor", underlying)
	require.Contains(t, err.Error(), "cpu-governor")
	require.ErrorIs(t, err, underlying)
}

func TestVerificationError(t *testing.T) {
	t.Parallel()

	err := NewVerificationError("fstab-noatime", "noatime still absent after apply")
	require.Contains(t, err.Error(), "fstab-noatime")
	require.Contains(t, err.Error(), "noatime still absent")
}

func TestRollbackErrorReportsRestoreState(t *testing.T) {
	t.Parallel()

	applyErr := fmt.Errorf("remount rejected options")

	clean := NewRollbackError("fstab-noatime", applyErr, nil)
	require.Contains(t, clean.Error(), "previous state restored")
	require.ErrorIs(t, clean, applyErr)

	dirty := NewRollbackError("fstab-noatime", applyErr, fmt.Errorf("restore failed"))
	require.Contains(t, dirty.Error(), "rollback also failed")
}
