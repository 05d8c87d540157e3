// Package scratch manages per-invocation temporary artifacts.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Dir is a private directory for compiled binaries and other artifacts that
// must not outlive one invocation.
type Dir struct {
	path  string
	token string
}

// New creates a uniquely named directory under the system temp dir.
func New(prefix string) (*Dir, error) {
	token := uuid.NewString()
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s", prefix, token))
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Dir{path: path, token: token}, nil
}

// Path returns the directory location.
func (d *Dir) Path() string {
	return d.path
}

// Token is unique to this invocation and safe to embed in file names.
func (d *Dir) Token() string {
	return d.token
}

// Close removes the directory and everything in it.
func (d *Dir) Close() error {
	if d == nil || d.path == "" {
		return nil
	}
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("remove scratch dir %s: %w", d.path, err)
	}
	return nil
}

// SiblingTemp returns a name next to target that cannot collide with fixture
// files or with another invocation writing the same target.
func SiblingTemp(target, token string) string {
	dir, base := filepath.Split(target)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, token))
}
