// Package scratch hands out per-request working directories that are removed on release.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o600
)

// Dir is a uniquely named directory owned by a single operation.
type Dir struct {
	path string
}

// New creates a fresh directory under root. An empty root means os.TempDir().
func New(root, prefix string) (*Dir, error) {
	if root == "" {
		root = os.TempDir()
	}

	if err := os.MkdirAll(root, dirPermissions); err != nil {
		return nil, fmt.Errorf("scratch - create root %s: %w", root, err)
	}

	path := filepath.Join(root, prefix+uuid.NewString())
	if err := os.Mkdir(path, dirPermissions); err != nil {
		return nil, fmt.Errorf("scratch - create dir: %w", err)
	}

	return &Dir{path: path}, nil
}

// Path returns the location of name inside the directory.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.path, filepath.Base(name))
}

// Root returns the directory itself.
func (d *Dir) Root() string {
	return d.path
}

// Write stores body as name and returns its full path.
func (d *Dir) Write(name string, body []byte) (string, error) {
	p := d.Path(name)
	if err := os.WriteFile(p, body, filePermissions); err != nil {
		return "", fmt.Errorf("scratch - write %s: %w", name, err)
	}
	return p, nil
}

// Release removes the directory and everything in it.
func (d *Dir) Release() error {
	return os.RemoveAll(d.path)
}
