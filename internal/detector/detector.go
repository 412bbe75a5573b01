// Package detector decides whether a commit is made by a human, an AI agent
// or a CI pipeline, and explains how it reached that decision.
//
// Rules are evaluated in a fixed order and the first match wins:
//
//  1. explicit override (the --mode flag)
//  2. APC_MODE=human|agent|ci
//  3. AGENT_MODE=1 or AGENT_MODE=true
//  4. configured custom agent variables, in configured order
//  5. built-in agent variables, in registry order
//  6. CI=true or a CI vendor variable
//  7. neither stdin nor stdout is a terminal
//  8. human
//
// Detection is a pure function of its inputs: the same Snapshot always
// yields the same mode and trace.
package detector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/agent-precommit/internal/mode"
)

// Environment variable names consulted directly.
const (
	EnvAPCMode   = "APC_MODE"
	EnvAgentMode = "AGENT_MODE"
	EnvCI        = "CI"
)

// ErrInvalidMode is matched by every OverrideError.
var ErrInvalidMode = errors.New("invalid mode override")

// OverrideError reports an explicit mode request that names no known mode.
type OverrideError struct {
	Source string
	Value  string
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("%s: %q is not a mode (expected human, agent or ci)", e.Source, e.Value)
}

func (e *OverrideError) Is(target error) bool {
	return target == ErrInvalidMode
}

// Rule identifies one detection rule.
type Rule string

const (
	RuleOverride    Rule = "override"
	RuleAPCMode     Rule = "apc_mode"
	RuleAgentMode   Rule = "agent_mode"
	RuleCustomAgent Rule = "custom_agent_env"
	RuleKnownAgent  Rule = "known_agent_env"
	RuleCI          Rule = "ci_env"
	RuleNoTTY       Rule = "no_tty"
	RuleDefault     Rule = "default"
)

// Signal is one piece of evidence the detector considered.
type Signal struct {
	Rule    Rule      `json:"rule"`
	Source  string    `json:"source"`
	Value   string    `json:"value,omitempty"`
	Matched bool      `json:"matched"`
	Mode    mode.Mode `json:"mode,omitempty"`
}

// Detection is the outcome of Detect.
type Detection struct {
	Mode mode.Mode `json:"mode"`
	// Signals holds every rule evaluated, ending with the one that matched.
	Signals       []Signal `json:"signals"`
	ParentProcess string   `json:"parent_process,omitempty"`
}

// Reason describes the deciding signal.
func (d Detection) Reason() string {
	if len(d.Signals) == 0 {
		return ""
	}
	s := d.Signals[len(d.Signals)-1]
	if s.Value != "" {
		return fmt.Sprintf("%s=%s", s.Source, s.Value)
	}
	return s.Source
}

// Detector holds the variable registries consulted by Detect.
type Detector struct {
	customAgentVars []string
	knownAgentVars  []string
	ciVendorVars    []string
}

// New returns a detector that also treats customAgentVars as agent markers.
func New(customAgentVars []string) *Detector {
	return &Detector{
		customAgentVars: customAgentVars,
		knownAgentVars:  KnownAgentEnvVars,
		ciVendorVars:    CIVendorEnvVars,
	}
}

// Detect derives the mode from snap. A non-empty override always wins.
func (d *Detector) Detect(snap Snapshot, override string) (Detection, error) {
	det := Detection{ParentProcess: snap.ParentProcess}

	match := func(s Signal, m mode.Mode) Detection {
		s.Matched = true
		s.Mode = m
		det.Signals = append(det.Signals, s)
		det.Mode = m
		return det
	}
	miss := func(s Signal) {
		det.Signals = append(det.Signals, s)
	}

	sig := Signal{Rule: RuleOverride, Source: "--mode flag"}
	if override != "" {
		m, err := mode.Parse(override)
		if err != nil {
			return Detection{}, &OverrideError{Source: sig.Source, Value: override}
		}
		sig.Value = override
		return match(sig, m), nil
	}
	miss(sig)

	sig = Signal{Rule: RuleAPCMode, Source: EnvAPCMode}
	if v, ok := snap.Lookup(EnvAPCMode); ok && strings.TrimSpace(v) != "" {
		m, err := mode.Parse(v)
		if err != nil {
			return Detection{}, &OverrideError{Source: EnvAPCMode, Value: v}
		}
		sig.Value = v
		return match(sig, m), nil
	}
	miss(sig)

	sig = Signal{Rule: RuleAgentMode, Source: EnvAgentMode}
	if v, ok := snap.Lookup(EnvAgentMode); ok && (v == "1" || strings.EqualFold(v, "true")) {
		sig.Value = v
		return match(sig, mode.Agent), nil
	}
	miss(sig)

	if name, ok := firstPresent(snap, d.customAgentVars); ok {
		return match(Signal{Rule: RuleCustomAgent, Source: name}, mode.Agent), nil
	}
	miss(Signal{Rule: RuleCustomAgent, Source: fmt.Sprintf("%d configured agent variables", len(d.customAgentVars))})

	if name, ok := firstPresent(snap, d.knownAgentVars); ok {
		return match(Signal{Rule: RuleKnownAgent, Source: name}, mode.Agent), nil
	}
	miss(Signal{Rule: RuleKnownAgent, Source: fmt.Sprintf("%d known agent variables", len(d.knownAgentVars))})

	if v, ok := snap.Lookup(EnvCI); ok && (v == "1" || strings.EqualFold(v, "true")) {
		return match(Signal{Rule: RuleCI, Source: EnvCI, Value: v}, mode.CI), nil
	}
	if name, ok := firstPresent(snap, d.ciVendorVars); ok {
		return match(Signal{Rule: RuleCI, Source: name}, mode.CI), nil
	}
	miss(Signal{Rule: RuleCI, Source: fmt.Sprintf("CI and %d vendor variables", len(d.ciVendorVars))})

	sig = Signal{Rule: RuleNoTTY, Source: "stdin/stdout terminal"}
	if !snap.StdinTTY && !snap.StdoutTTY {
		sig.Source = "no terminal on stdin or stdout"
		return match(sig, mode.Agent), nil
	}
	miss(sig)

	return match(Signal{Rule: RuleDefault, Source: "no agent or CI indicators"}, mode.Human), nil
}

func firstPresent(snap Snapshot, names []string) (string, bool) {
	for _, name := range names {
		if _, ok := snap.Lookup(name); ok {
			return name, true
		}
	}
	return "", false
}
