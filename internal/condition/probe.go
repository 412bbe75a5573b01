package condition

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// OSProbe resolves leaf predicates against the real filesystem and PATH.
// Relative paths are resolved against Root.
type OSProbe struct {
	Root string
}

// NewOSProbe returns a probe rooted at root.
func NewOSProbe(root string) *OSProbe {
	return &OSProbe{Root: root}
}

func (p *OSProbe) resolve(path string) string {
	if filepath.IsAbs(path) || p.Root == "" {
		return path
	}
	return filepath.Join(p.Root, path)
}

func (p *OSProbe) stat(path string) (fs.FileInfo, error) {
	info, err := os.Stat(p.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return info, err
}

// FileExists implements FileProbe.
func (p *OSProbe) FileExists(path string) (bool, error) {
	info, err := p.stat(path)
	if err != nil || info == nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// DirExists implements FileProbe.
func (p *OSProbe) DirExists(path string) (bool, error) {
	info, err := p.stat(path)
	if err != nil || info == nil {
		return false, err
	}
	return info.IsDir(), nil
}

// CommandExists implements CommandProbe. A name containing a path
// separator, such as ./scripts/lint, is resolved against Root rather than
// searched for in PATH.
func (p *OSProbe) CommandExists(name string) (bool, error) {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		name = p.resolve(name)
	}
	_, err := exec.LookPath(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return false, nil
	default:
		return false, err
	}
}
