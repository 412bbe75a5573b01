package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Command is one check invocation.
type Command struct {
	Script string
	Dir    string
	Env    []string
	// GracePeriod is how long the process group has to exit after SIGTERM
	// before it is killed.
	GracePeriod time.Duration
}

// Outcome is what a CommandRunner observed.
type Outcome struct {
	// Started is false when the process could not be spawned.
	Started  bool
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Err      error
}

// CommandRunner runs a command until it exits or ctx is done.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) Outcome
}

// ShellRunner runs scripts with `sh -c` in their own process group, so a
// timeout or cancellation terminates the shell together with everything it
// started.
type ShellRunner struct {
	// Shell defaults to "sh", resolved through PATH.
	Shell string
}

// Run implements CommandRunner.
func (r ShellRunner) Run(ctx context.Context, command Command) Outcome {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command.Script)
	cmd.Dir = command.Dir
	cmd.Env = command.Env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stopEscalation := setProcessGroup(cmd, command.GracePeriod)
	defer stopEscalation()

	// Orphans that escaped the group may keep the output pipes open.
	cmd.WaitDelay = command.GracePeriod + time.Second

	if err := cmd.Start(); err != nil {
		return Outcome{Err: err}
	}

	err := cmd.Wait()
	out := Outcome{
		Started:  true,
		ExitCode: -1,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		out.Err = err
	}
	return out
}
