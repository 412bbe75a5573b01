//go:build !unix

package executor

import (
	"os/exec"
	"time"
)

// setProcessGroup falls back to killing only the direct child.
func setProcessGroup(cmd *exec.Cmd, _ time.Duration) func() {
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
	return func() {}
}
