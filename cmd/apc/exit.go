package main

import (
	"errors"

	"github.com/fyrsmithlabs/agent-precommit/internal/config"
	"github.com/fyrsmithlabs/agent-precommit/internal/detector"
	"github.com/fyrsmithlabs/agent-precommit/internal/executor"
)

// Exit codes. 64 and 78 follow sysexits.h; 124 matches timeout(1).
const (
	exitOK        = 0
	exitFailed    = 1
	exitUsage     = 64
	exitConfig    = 78
	exitTimedOut  = 124
	exitCancelled = 130
)

// exitError carries an exit code. A nil err exits silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitCodeFor(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, config.ErrInvalidConfig):
		return exitConfig
	case errors.Is(err, detector.ErrInvalidMode), errors.Is(err, executor.ErrUnknownCheck):
		return exitUsage
	}
	return exitFailed
}

// reportError converts a finished run into the command's result.
func reportError(report *executor.RunReport) error {
	switch report.Status {
	case executor.StatusPassed:
		return nil
	case executor.StatusTimedOut:
		return &exitError{code: exitTimedOut}
	case executor.StatusCancelled:
		return &exitError{code: exitCancelled}
	}
	return &exitError{code: exitFailed}
}
