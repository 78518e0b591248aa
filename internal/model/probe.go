package model

// ProbeState describes the host's current state relative to an operation's
// desired state.
type ProbeState string

const (
	// StateSatisfied means the desired state already holds.
	StateSatisfied ProbeState = "satisfied"
	// StateMissing means the target is absent entirely.
	StateMissing ProbeState = "missing"
	// StateDrifted means the target exists but with a different value.
	StateDrifted ProbeState = "drifted"
	// StateUnknown means the probe could not determine identity or state;
	// the operation is unactionable rather than failed.
	StateUnknown ProbeState = "unknown"
)

// Probe is the result of an operation's read-only state assessment. It is
// returned by Probe() and handed back to Apply() so apply does not have to
// recompute what the probe already observed.
type Probe struct {
	State ProbeState

	// NeedsAction is true only for Missing or Drifted states.
	NeedsAction bool

	// Message is a human-readable description of what the probe found.
	Message string

	// Data carries probe observations forward into Apply.
	Data any
}

// Satisfied constructs a probe result for an already-reconciled target.
func Satisfied(message string) *Probe {
	return &Probe{State: StateSatisfied, Message: message}
}

// Missing constructs a probe result for an absent target.
func Missing(message string, data any) *Probe {
	return &Probe{State: StateMissing, NeedsAction: true, Message: message, Data: data}
}

// Drifted constructs a probe result for a target with the wrong value.
func Drifted(message string, data any) *Probe {
	return &Probe{State: StateDrifted, NeedsAction: true, Message: message, Data: data}
}

// Unactionable constructs a probe result for a target whose identity or
// state cannot be determined.
func Unactionable(message string) *Probe {
	return &Probe{State: StateUnknown, Message: message}
}
