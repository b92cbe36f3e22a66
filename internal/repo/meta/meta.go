package meta

import (
	"fmt"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/fs"
)

// MetaContext owns commits, branches and HEAD of a repository.
type MetaContext struct {
	Config *config.RepoConfig
	FS     fs.FS
}

// NewMeta ensures a repository exists at the given root.
// It will create all necessary structure if missing.
func NewMeta(cfg *config.RepoConfig, fsys fs.FS) (*MetaContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil RepoConfig provided")
	}
	mc := &MetaContext{Config: cfg, FS: fsys}
	if mc.IsMetaExists() {
		return mc, nil
	}
	if err := mc.createMetaStructure(); err != nil {
		return nil, err
	}
	return mc, nil
}

// createMetaStructure builds a fresh meta layout and writes defaults.
func (mc *MetaContext) createMetaStructure() error {
	dirs := []string{
		mc.Config.RepoDir,
		mc.Config.CommitsDir(),
		mc.Config.FilesetsDir(),
		mc.Config.BranchesDir(),
		mc.Config.BlocksDir(),
	}
	for _, d := range dirs {
		if err := mc.FS.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("failed to create dir %q: %w", d, err)
		}
	}

	if err := mc.SetLastCommitID(config.DefaultBranch, ""); err != nil {
		return fmt.Errorf("failed to create default branch: %w", err)
	}
	if _, err := mc.SetHeadRef(config.DefaultBranch); err != nil {
		return err
	}
	return nil
}

// IsMetaExists checks whether HEAD is present.
func (mc *MetaContext) IsMetaExists() bool {
	fi, err := mc.FS.Stat(mc.Config.HeadFile())
	return err == nil && !fi.IsDir()
}
