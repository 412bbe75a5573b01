//go:build unix

package condition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSProbe_CommandExists_RelativeToRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scripts", "lint"), []byte("#!/bin/sh\nexit 0\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scripts", "notes"), []byte("not a command\n"), 0o644))

	// The process runs elsewhere; the probe must not depend on it.
	t.Chdir(t.TempDir())

	p := NewOSProbe(root)

	tests := []struct {
		name string
		cmd  string
		want bool
	}{
		{name: "dot-relative script", cmd: "./scripts/lint", want: true},
		{name: "relative script", cmd: "scripts/lint", want: true},
		{name: "not executable", cmd: "./scripts/notes", want: false},
		{name: "missing script", cmd: "./scripts/missing", want: false},
		{name: "absolute path", cmd: filepath.Join(root, "scripts", "lint"), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := p.CommandExists(tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
