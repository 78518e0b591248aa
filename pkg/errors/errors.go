package errors

import (
	"fmt"
)

// ValidationError captures invocation validation issues. It is the only error
// class that may terminate the process before any operation runs.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ParseError represents a failure to extract structured state from a
// generated config file (unit file, mount table, renderer config).
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a runtime failure inside an operation's apply
// phase or one of its external sub-steps.
type ExecutionError struct {
	Op  string
	Err error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(op string, err error) error {
	return &ExecutionError{Op: op, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("execution error in %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// VerificationError indicates an apply phase completed without raising an
// error but the post-condition still does not hold.
type VerificationError struct {
	Op      string
	Message string
}

// NewVerificationError constructs a VerificationError.
func NewVerificationError(op, message string) error {
	return &VerificationError{Op: op, Message: message}
}

func (e *VerificationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("verification failed for %s: %s", e.Op, e.Message)
}

// RollbackError wraps an apply failure together with the outcome of the
// compensating restore that followed it. A nil RollbackErr means the host
// was returned to its pre-apply state.
type RollbackError struct {
	Op          string
	Err         error
	RollbackErr error
}

// NewRollbackError constructs a RollbackError.
func NewRollbackError(op string, err, rollbackErr error) error {
	return &RollbackError{Op: op, Err: err, RollbackErr: rollbackErr}
}

func (e *RollbackError) Error() string {
	if e == nil {
		return ""
	}
	if e.RollbackErr != nil {
		return fmt.Sprintf("%s failed: %v (rollback also failed: %v)", e.Op, e.Err, e.RollbackErr)
	}
	return fmt.Sprintf("%s failed: %v (previous state restored)", e.Op, e.Err)
}

// Unwrap exposes the original apply error.
func (e *RollbackError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
