package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Find walks from startDir towards the filesystem root and returns the
// first FileName found. Symlinks in startDir are resolved first.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", startDir, err)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	for {
		candidate := filepath.Join(dir, FileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s in %s or any parent", ErrNotFound, FileName, startDir)
		}
		dir = parent
	}
}

// Discover loads the configuration for startDir: the explicit path when
// given, else the nearest FileName upwards, else Default().
func Discover(startDir, explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, err := Find(startDir)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}
