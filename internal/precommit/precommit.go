// Package precommit inspects the pre-commit framework configuration that
// the built-in pre-commit checks delegate to.
package precommit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

var (
	// ErrNotFound indicates the pre-commit config file does not exist
	ErrNotFound = errors.New("pre-commit config not found")

	// ErrInvalid indicates the file is not a usable pre-commit config
	ErrInvalid = errors.New("invalid pre-commit config")
)

// Hook is one configured hook.
type Hook struct {
	ID   string `json:"id"`
	Repo string `json:"repo"`
}

// Info summarizes a pre-commit config.
type Info struct {
	Path  string `json:"path"`
	Repos int    `json:"repos"`
	Hooks []Hook `json:"hooks"`
}

// HookIDs returns the hook ids in file order.
func (i *Info) HookIDs() []string {
	ids := make([]string, len(i.Hooks))
	for n, h := range i.Hooks {
		ids[n] = h.ID
	}
	return ids
}

// Inspect reads the config at path, relative to root unless absolute.
func Inspect(root, path string) (*Info, error) {
	if !filepath.IsAbs(path) && root != "" {
		path = filepath.Join(root, path)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	info, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	info.Path = path
	return info, nil
}

// Parse summarizes pre-commit YAML.
func Parse(data []byte) (*Info, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !k.Exists("repos") {
		return nil, fmt.Errorf("%w: missing top-level repos list", ErrInvalid)
	}

	info := &Info{}
	for i, repo := range k.Slices("repos") {
		url := repo.String("repo")
		if url == "" {
			return nil, fmt.Errorf("%w: repos[%d]: missing repo", ErrInvalid, i)
		}
		info.Repos++
		for j, hook := range repo.Slices("hooks") {
			id := hook.String("id")
			if id == "" {
				return nil, fmt.Errorf("%w: repos[%d].hooks[%d]: missing id", ErrInvalid, i, j)
			}
			info.Hooks = append(info.Hooks, Hook{ID: id, Repo: url})
		}
	}
	return info, nil
}
