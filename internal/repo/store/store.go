package store

import (
	"fmt"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/repo/store/block"
	"github.com/keshon/bvc/internal/repo/store/file"
	"github.com/keshon/bvc/internal/repo/store/fileset"
)

// StoreContext is the high-level store abstraction that unifies all subsystems.
type StoreContext struct {
	Config     *config.RepoConfig
	BlockCtx   *block.BlockContext
	FileCtx    *file.FileContext
	FilesetCtx *fileset.FilesetContext
}

// NewStore wires the block, file and fileset stores over fsys and makes sure
// their directories exist.
func NewStore(cfg *config.RepoConfig, fsys fs.FS) (*StoreContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil RepoConfig provided")
	}
	if fsys == nil {
		fsys = &fs.OSFS{}
	}

	blockCtx := block.NewBlockContext(cfg.BlocksDir(), fsys)
	fileCtx := file.NewFileContext(cfg.WorkingTreeDir, cfg.RepoDir, blockCtx, fsys)
	filesetCtx := fileset.NewFilesetContext(cfg.FilesetsDir(), fileCtx, blockCtx, fsys)

	for _, d := range []string{cfg.BlocksDir(), cfg.FilesetsDir()} {
		if err := fsys.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir %q: %w", d, err)
		}
	}

	return &StoreContext{
		Config:     cfg,
		BlockCtx:   blockCtx,
		FileCtx:    fileCtx,
		FilesetCtx: filesetCtx,
	}, nil
}
