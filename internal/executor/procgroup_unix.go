//go:build unix

package executor

import (
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// setProcessGroup starts cmd in its own process group. On cancellation the
// group receives SIGTERM, then SIGKILL once grace has elapsed. The returned
// func stops a pending escalation and must be called after Wait.
func setProcessGroup(cmd *exec.Cmd, grace time.Duration) func() {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)

	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		if grace <= 0 {
			return syscall.Kill(pgid, syscall.SIGKILL)
		}
		if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
			return syscall.Kill(pgid, syscall.SIGKILL)
		}
		mu.Lock()
		timer = time.AfterFunc(grace, func() {
			// ESRCH from a group that already exited is harmless.
			_ = syscall.Kill(pgid, syscall.SIGKILL)
		})
		mu.Unlock()
		return nil
	}

	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
}
