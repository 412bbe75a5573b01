// Package mode defines the verification policies a commit can be routed to.
package mode

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which check policy applies to a run.
type Mode string

const (
	// Human is an interactive developer commit: fast checks, stop at the first failure.
	Human Mode = "human"

	// Agent is a commit made by an AI coding agent: thorough checks, report everything.
	Agent Mode = "agent"

	// CI is a commit made inside a continuous-integration pipeline.
	CI Mode = "ci"
)

// ErrUnknownMode is returned by Parse for values outside the known set.
var ErrUnknownMode = errors.New("unknown mode")

// All returns every mode in canonical order.
func All() []Mode {
	return []Mode{Human, Agent, CI}
}

// Parse converts a textual mode, ignoring case and surrounding whitespace.
func Parse(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Human, Agent, CI:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (expected human, agent or ci)", ErrUnknownMode, s)
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case Human, Agent, CI:
		return true
	}
	return false
}

// DefaultFailFast reports whether the mode stops at the first failing stage
// unless its configuration says otherwise.
func (m Mode) DefaultFailFast() bool {
	return m == Human
}
