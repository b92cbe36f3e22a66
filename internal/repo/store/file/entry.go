package file

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/repo/store/block"
)

// Entry represents a tracked file and its content blocks. Path is
// repository-relative and slash separated.
type Entry struct {
	Path   string           `json:"path"`
	Blocks []block.BlockRef `json:"blocks"`
}

// Equal compares two entries by their blocks.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil && other == nil {
		return true
	}
	if e == nil || other == nil {
		return false
	}
	if len(e.Blocks) != len(other.Blocks) {
		return false
	}
	for i := range e.Blocks {
		if e.Blocks[i].Hash != other.Blocks[i].Hash || e.Blocks[i].Size != other.Blocks[i].Size {
			return false
		}
	}
	return true
}

// BlockContext abstracts block operations.
type BlockContext interface {
	SplitFile(path string) ([]block.BlockRef, error)
	Write(path string, blocks []block.BlockRef) error
	Read(hash string) ([]byte, error)
}

// FileContext manages file-level operations (staging, restore, scan) with abstracted dependencies.
type FileContext struct {
	WorkingTreeDir string
	RepoDir        string
	BlockCtx       BlockContext
	FS             fs.FS
}

// NewFileContext creates a new FileContext.
func NewFileContext(workingTreeDir, repoDir string, blocks BlockContext, fs fs.FS) *FileContext {
	return &FileContext{WorkingTreeDir: workingTreeDir, RepoDir: repoDir, BlockCtx: blocks, FS: fs}
}

// Abs maps a repository-relative path into the working tree.
func (fc *FileContext) Abs(rel string) string {
	return filepath.Join(fc.WorkingTreeDir, filepath.FromSlash(rel))
}

// Rel maps a working tree path (absolute or relative to the tree) to the
// repository-relative form used by entries.
func (fc *FileContext) Rel(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(fc.WorkingTreeDir, path)
	}
	rel, err := filepath.Rel(fc.WorkingTreeDir, filepath.Clean(path))
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %q is outside the working tree", path)
	}
	return rel, nil
}

// Exists checks whether a given path exists in the working tree as a file.
func (fc *FileContext) Exists(rel string) bool {
	fi, err := fc.FS.Stat(fc.Abs(rel))
	return err == nil && !fi.IsDir()
}
