package config

import (
	"fmt"
	"path/filepath"

	"github.com/keshon/bvc/internal/fs"
)

const (
	RepoDir     = ".bvc"
	CommitsDir  = "commits"
	FilesetsDir = "filesets"
	BranchesDir = "branches"
	BlocksDir   = "blocks"

	HeadFile         = "HEAD"
	MergeHeadFile    = "MERGE_HEAD"
	IndexFile        = "index.json"
	ConfigFile       = "config"
	SnapshotListFile = "snapshotlist"
	WLockFile        = "wlock"
	StoreLockFile    = "lock"

	IgnoredFilesFile = ".bvc-ignore"
)

const (
	DefaultBranch          = "main"
	DefaultHash            = "xxh3"
	DefaultSnapshotMessage = "snapshot"
)

// DefaultIgnoredFiles are never reported by working tree scans.
var DefaultIgnoredFiles = []string{RepoDir}

// RepoConfig resolves every on-disk location of a repository.
type RepoConfig struct {
	WorkingTreeDir string // user files live here
	RepoDir        string // WorkingTreeDir/.bvc
}

// NewRepoConfig returns the layout for a working tree rooted at dir.
func NewRepoConfig(dir string) *RepoConfig {
	dir = filepath.Clean(dir)
	return &RepoConfig{WorkingTreeDir: dir, RepoDir: filepath.Join(dir, RepoDir)}
}

func (c *RepoConfig) CommitsDir() string    { return filepath.Join(c.RepoDir, CommitsDir) }
func (c *RepoConfig) FilesetsDir() string   { return filepath.Join(c.RepoDir, FilesetsDir) }
func (c *RepoConfig) BranchesDir() string   { return filepath.Join(c.RepoDir, BranchesDir) }
func (c *RepoConfig) BlocksDir() string     { return filepath.Join(c.RepoDir, BlocksDir) }
func (c *RepoConfig) HeadFile() string      { return filepath.Join(c.RepoDir, HeadFile) }
func (c *RepoConfig) MergeHeadFile() string { return filepath.Join(c.RepoDir, MergeHeadFile) }
func (c *RepoConfig) IndexFile() string     { return filepath.Join(c.RepoDir, IndexFile) }
func (c *RepoConfig) ConfigFile() string    { return filepath.Join(c.RepoDir, ConfigFile) }

// LocalPath joins name onto the repository's private directory.
func (c *RepoConfig) LocalPath(name string) string {
	return filepath.Join(c.RepoDir, filepath.FromSlash(name))
}

// WorkingPath joins a repository-relative slash path onto the working tree.
func (c *RepoConfig) WorkingPath(rel string) string {
	return filepath.Join(c.WorkingTreeDir, filepath.FromSlash(rel))
}

// ResolveWorkingTreeRoot walks up from start until it finds a directory
// containing a .bvc repository.
func ResolveWorkingTreeRoot(fsys fs.FS, start string) (string, error) {
	cur, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if fsys.IsDir(filepath.Join(cur, RepoDir)) {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("not a bvc repository (or any of the parent directories): %s", start)
		}
		cur = parent
	}
}
