// Package artifact persists snapshot artifacts and keeps a journal of
// what was written.
package artifact

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Store is the filesystem capability used by the monitor.
type Store interface {
	// EnsureDir creates path (and parents) if absent. It reports whether
	// the directory exists afterwards.
	EnsureDir(path string) (bool, error)
	WriteBytes(path string, data []byte) error
	WriteText(path string, text string) error
}

// FS implements Store on an afero filesystem.
type FS struct {
	fs afero.Fs
}

// NewFS returns a Store backed by fs.
func NewFS(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// NewOSFS returns a Store backed by the real filesystem.
func NewOSFS() *FS {
	return NewFS(afero.NewOsFs())
}

func (s *FS) EnsureDir(path string) (bool, error) {
	if err := s.fs.MkdirAll(path, dirPerm); err != nil {
		return false, fmt.Errorf("create dir %s: %w", path, err)
	}
	ok, err := afero.DirExists(s.fs, path)
	if err != nil {
		return false, fmt.Errorf("stat dir %s: %w", path, err)
	}
	return ok, nil
}

func (s *FS) WriteBytes(path string, data []byte) error {
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *FS) WriteText(path string, text string) error {
	return s.WriteBytes(path, []byte(text))
}
