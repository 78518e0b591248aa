package hostexec

import (
	"context"
	"fmt"
	"strings"
)

// Response scripts the outcome of one command invocation on a Fake runner.
type Response struct {
	Result Result
	Err    error
}

// Fake is a scripted Runner for tests. Commands are matched by their joined
// argv; unmatched commands succeed with empty output unless StrictMode is
// set.
type Fake struct {
	Responses map[string]Response
	Calls     []string
	// StrictMode makes unmatched commands fail instead of succeeding.
	StrictMode bool
}

var _ Runner = (*Fake)(nil)

// Run looks up the scripted response for the invocation.
func (f *Fake) Run(_ context.Context, name string, args ...string) (Result, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.Calls = append(f.Calls, key)

	if resp, ok := f.Responses[key]; ok {
		return resp.Result, resp.Err
	}
	if f.StrictMode {
		return Result{}, fmt.Errorf("unscripted command: %s", key)
	}
	return Result{}, nil
}

// Called reports whether any recorded invocation contains the substring.
func (f *Fake) Called(substr string) bool {
	for _, call := range f.Calls {
		if strings.Contains(call, substr) {
			return true
		}
	}
	return false
}
