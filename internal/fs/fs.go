// Package fs is the filesystem seam of bvc. Engine and snapshot code only
// touch disk through FS, so the same code runs against OSFS in the CLI and
// MemoryFS in tests.
package fs

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
)

// FS abstracts filesystem operations.
type FS interface {
	Open(path string) (io.ReadSeekCloser, error)
	ReadFile(path string) ([]byte, error)
	// WriteFile fails if the parent directory does not exist.
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	// Remove deletes a file or an empty directory.
	Remove(path string) error
	Rename(oldPath, newPath string) error
	Stat(path string) (os.FileInfo, error)
	// ReadDir lists entries sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)
	// CreateTempFile creates a file in dir for a later Rename; the returned
	// name is the full path.
	CreateTempFile(dir, pattern string) (io.WriteCloser, string, error)
	IsNotExist(err error) bool
	Exists(path string) bool
	IsDir(path string) bool
}

// SkipDir can be returned from a WalkFunc to skip the directory being visited.
var SkipDir = iofs.SkipDir

// WalkFunc is called for every entry below root (root itself excluded).
type WalkFunc func(path string, d iofs.DirEntry) error

// Walk visits everything below root depth-first in lexical order.
func Walk(fsys FS, root string, fn WalkFunc) error {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := filepath.Join(root, e.Name())
		if err := fn(p, e); err != nil {
			if errors.Is(err, SkipDir) {
				continue
			}
			return err
		}
		if e.IsDir() {
			if err := Walk(fsys, p, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
