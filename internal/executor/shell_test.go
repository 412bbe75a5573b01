//go:build unix

package executor

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunner_Run(t *testing.T) {
	r := ShellRunner{}

	t.Run("captures output and exit code", func(t *testing.T) {
		out := r.Run(context.Background(), Command{Script: "echo out; echo err >&2; exit 3"})
		require.True(t, out.Started)
		assert.NoError(t, out.Err)
		assert.Equal(t, 3, out.ExitCode)
		assert.Equal(t, "out\n", string(out.Stdout))
		assert.Equal(t, "err\n", string(out.Stderr))
	})

	t.Run("runs in dir with env", func(t *testing.T) {
		dir := t.TempDir()
		out := r.Run(context.Background(), Command{
			Script: `printf '%s:%s' "$(basename "$PWD")" "$GREETING"`,
			Dir:    dir,
			Env:    append(os.Environ(), "GREETING=hello"),
		})
		require.True(t, out.Started)
		assert.Equal(t, 0, out.ExitCode)
		assert.Contains(t, string(out.Stdout), ":hello")
	})

	t.Run("missing shell is not started", func(t *testing.T) {
		out := ShellRunner{Shell: "apc-no-such-shell"}.Run(context.Background(), Command{Script: "true"})
		assert.False(t, out.Started)
		assert.Error(t, out.Err)
	})

	t.Run("missing dir is not started", func(t *testing.T) {
		out := r.Run(context.Background(), Command{Script: "true", Dir: "/nonexistent/apc"})
		assert.False(t, out.Started)
		assert.Error(t, out.Err)
	})

	t.Run("cancellation terminates the process group", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		// The child sleep keeps stdout open; only a group kill ends it.
		out := r.Run(ctx, Command{Script: "sleep 30 & sleep 30", GracePeriod: 200 * time.Millisecond})
		elapsed := time.Since(start)

		require.True(t, out.Started)
		assert.NotEqual(t, 0, out.ExitCode)
		assert.Less(t, elapsed, 5*time.Second)
	})

	t.Run("sigterm ignored escalates to sigkill", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		out := r.Run(ctx, Command{Script: "trap '' TERM; sleep 30", GracePeriod: 200 * time.Millisecond})
		elapsed := time.Since(start)

		require.True(t, out.Started)
		assert.Equal(t, -1, out.ExitCode)
		assert.Less(t, elapsed, 5*time.Second)
	})
}
