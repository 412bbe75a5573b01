// Package git locates the repository a check run belongs to.
//
// Checks run from the repository root so relative paths in commands and
// enabled_if conditions mean the same thing from any subdirectory.
package git

import (
	"errors"
	"fmt"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	// ErrNotGitRepo indicates the directory is not inside a Git working tree
	ErrNotGitRepo = errors.New("not a git repository")
)

// Repo is an opened working tree.
type Repo struct {
	repo *gogit.Repository
	root string
}

// Open finds the repository containing dir, searching parent directories.
// Bare repositories are rejected with ErrNotGitRepo since they have no
// working tree to check.
func Open(dir string) (*Repo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, abs)
	}
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", abs, err)
	}

	wt, err := repo.Worktree()
	if errors.Is(err, gogit.ErrIsBareRepository) {
		return nil, fmt.Errorf("%w: %s is bare", ErrNotGitRepo, abs)
	}
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}

	return &Repo{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the top-level directory of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// Branch returns the short name of the checked-out branch, or "detached".
// An unborn branch, as in a fresh repository, is still reported by name.
func (r *Repo) Branch() (string, error) {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		return head.Target().Short(), nil
	}
	return "detached", nil
}
