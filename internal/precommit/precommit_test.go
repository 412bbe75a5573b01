package precommit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
repos:
  - repo: https://github.com/pre-commit/pre-commit-hooks
    rev: v4.6.0
    hooks:
      - id: trailing-whitespace
      - id: end-of-file-fixer
  - repo: local
    hooks:
      - id: go-vet
        name: go vet
        entry: go vet ./...
        language: system
`

func TestParse(t *testing.T) {
	info, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 2, info.Repos)
	assert.Equal(t, []string{"trailing-whitespace", "end-of-file-fixer", "go-vet"}, info.HookIDs())
	assert.Equal(t, "local", info.Hooks[2].Repo)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{name: "not yaml", data: "repos: [", wantMsg: "invalid pre-commit config"},
		{name: "no repos", data: "default_stages: [commit]\n", wantMsg: "missing top-level repos"},
		{name: "repo without url", data: "repos:\n  - hooks: []\n", wantMsg: "repos[0]: missing repo"},
		{name: "hook without id", data: "repos:\n  - repo: local\n    hooks:\n      - name: x\n", wantMsg: "repos[0].hooks[0]: missing id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".pre-commit-config.yaml"), []byte(sample), 0o644))

	info, err := Inspect(root, ".pre-commit-config.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".pre-commit-config.yaml"), info.Path)
	assert.Len(t, info.Hooks, 3)

	_, err = Inspect(root, "missing.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}
