package executor

import (
	"time"

	"github.com/fyrsmithlabs/agent-precommit/internal/mode"
)

// Status is the outcome of a single check or of a whole run.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusErrored   Status = "errored"
	StatusTimedOut  Status = "timed_out"
	StatusCancelled Status = "cancelled"
)

// IsFailure reports whether s counts against the run. Skipped is neutral.
func (s Status) IsFailure() bool {
	switch s {
	case StatusFailed, StatusErrored, StatusTimedOut, StatusCancelled:
		return true
	}
	return false
}

// CheckResult is the final outcome of one check. It is never modified
// after the executor records it.
type CheckResult struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	// Stage is the zero-based stage the check ran in, or -1 if it was
	// skipped before scheduling.
	Stage    int           `json:"stage"`
	ExitCode *int          `json:"exit_code,omitempty"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Message  string        `json:"message,omitempty"`
}

// Stage is a set of checks launched together.
type Stage struct {
	Index  int      `json:"index"`
	Checks []string `json:"checks"`
}

// Plan is the schedule derived from a mode's configuration before any
// check runs.
type Plan struct {
	Mode mode.Mode `json:"mode"`
	// Checks is the declared order used for the report.
	Checks []string `json:"checks"`
	Stages []Stage  `json:"stages"`
	// Skipped holds checks whose enabled_if did not hold, keyed by name.
	Skipped  map[string]CheckResult `json:"skipped,omitempty"`
	FailFast bool                   `json:"fail_fast"`
}

// RunReport is the outcome of a run. Results follow the declared check
// order, not completion order.
type RunReport struct {
	ID        string        `json:"id"`
	Mode      mode.Mode     `json:"mode"`
	Status    Status        `json:"status"`
	Results   []CheckResult `json:"results"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Result returns the named check's result.
func (r *RunReport) Result(name string) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return CheckResult{}, false
}

// Counts tallies results by status.
func (r *RunReport) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Failures returns the results that count against the run, in declared order.
func (r *RunReport) Failures() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if res.Status.IsFailure() {
			out = append(out, res)
		}
	}
	return out
}

// Passed reports whether the run succeeded.
func (r *RunReport) Passed() bool {
	return r.Status == StatusPassed
}
