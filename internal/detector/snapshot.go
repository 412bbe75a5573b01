package detector

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Snapshot is the environment evidence detection works from. Detect never
// reads process state itself; tests build snapshots directly.
type Snapshot struct {
	Env           map[string]string
	StdinTTY      bool
	StdoutTTY     bool
	ParentProcess string
}

// Lookup reports the value of an environment variable and whether it is set.
func (s Snapshot) Lookup(name string) (string, bool) {
	v, ok := s.Env[name]
	return v, ok
}

// CaptureSnapshot reads the current process environment.
func CaptureSnapshot() Snapshot {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return Snapshot{
		Env:           env,
		StdinTTY:      term.IsTerminal(int(os.Stdin.Fd())),
		StdoutTTY:     term.IsTerminal(int(os.Stdout.Fd())),
		ParentProcess: parentProcessName(os.Getppid()),
	}
}

// parentProcessName returns the command name of pid on Linux and "" elsewhere.
func parentProcessName(pid int) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
