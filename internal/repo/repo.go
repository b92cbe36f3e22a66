package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/lock"
	"github.com/keshon/bvc/internal/logging"
	"github.com/keshon/bvc/internal/repo/meta"
	"github.com/keshon/bvc/internal/repo/store"
)

// ErrNotRepository is returned when no .bvc directory is found.
var ErrNotRepository = errors.New("not a bvc repository")

// Repository represents an initialized repository.
type Repository struct {
	Config *config.RepoConfig
	FS     fs.FS
	Meta   *meta.MetaContext
	Store  *store.StoreContext
	Locker lock.Locker
	Log    logrus.FieldLogger

	active *Transaction
}

// Option customizes Init and Open.
type Option func(*Repository)

// WithLocker overrides the lock implementation.
func WithLocker(l lock.Locker) Option {
	return func(r *Repository) { r.Locker = l }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Repository) { r.Log = l }
}

func newRepository(root string, fsys fs.FS, opts []Option) *Repository {
	if fsys == nil {
		fsys = &fs.OSFS{}
	}
	cfg := config.NewRepoConfig(root)
	r := &Repository{Config: cfg, FS: fsys}
	for _, opt := range opts {
		opt(r)
	}
	r.Log = logging.OrDiscard(r.Log)
	if r.Locker == nil {
		if _, onDisk := fsys.(*fs.OSFS); onDisk {
			r.Locker = lock.NewFileLocker(cfg.RepoDir)
		} else {
			r.Locker = lock.NewProcessLocker()
		}
	}
	return r
}

func (r *Repository) attach() error {
	var err error
	if r.Meta, err = meta.NewMeta(r.Config, r.FS); err != nil {
		return fmt.Errorf("failed to init meta: %w", err)
	}
	if r.Store, err = store.NewStore(r.Config, r.FS); err != nil {
		return fmt.Errorf("failed to init store: %w", err)
	}
	return nil
}

// Init creates a new repository in root.
func Init(root string, fsys fs.FS, opts ...Option) (*Repository, error) {
	r := newRepository(root, fsys, opts)
	if r.FS.Exists(r.Config.HeadFile()) {
		return nil, fmt.Errorf("repository already exists at %s: %w", r.Config.RepoDir, os.ErrExist)
	}
	if err := r.attach(); err != nil {
		return nil, err
	}
	if err := r.FS.WriteFile(r.Config.ConfigFile(), []byte(config.DefaultRepoIni), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write config: %w", err)
	}
	return r, nil
}

// Open opens an existing repository rooted at root.
func Open(root string, fsys fs.FS, opts ...Option) (*Repository, error) {
	r := newRepository(root, fsys, opts)
	if _, err := r.FS.Stat(r.Config.HeadFile()); err != nil {
		return nil, fmt.Errorf("%w (missing HEAD): %s", ErrNotRepository, root)
	}
	if err := r.attach(); err != nil {
		return nil, err
	}
	return r, nil
}

// Discover opens the repository enclosing start on the real filesystem.
func Discover(start string, opts ...Option) (*Repository, error) {
	fsys := &fs.OSFS{}
	root, err := config.ResolveWorkingTreeRoot(fsys, start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRepository, err)
	}
	return Open(root, fsys, opts...)
}

// Settings loads the repository ini config.
func (r *Repository) Settings() (*config.RepoIni, error) {
	return config.LoadRepoIni(r.FS, r.Config.ConfigFile())
}

// WLock takes the exclusive working-tree lock.
func (r *Repository) WLock() (lock.Releaser, error) {
	return r.Locker.Acquire(config.WLockFile)
}

// Lock takes the exclusive store lock.
func (r *Repository) Lock() (lock.Releaser, error) {
	return r.Locker.Acquire(config.StoreLockFile)
}

// LocalStateFiles are the engine files that mark an interrupted operation.
var LocalStateFiles = []string{
	"merge/state",
	"merge/state2",
	"rebasestate",
	"updatestate",
	"histedit-state",
	"graftstate",
	"bisect.state",
}

// LocalStateFiles returns the marker names this engine knows about.
func (r *Repository) LocalStateFiles() []string {
	return append([]string(nil), LocalStateFiles...)
}

func (r *Repository) ReadLocalStateFile(name string) ([]byte, error) {
	return r.FS.ReadFile(r.Config.LocalPath(name))
}

func (r *Repository) LocalStateExists(name string) bool {
	fi, err := r.FS.Stat(r.Config.LocalPath(name))
	return err == nil && !fi.IsDir()
}

func (r *Repository) WriteLocalStateFile(name string, data []byte) error {
	path := r.Config.LocalPath(name)
	if err := r.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return r.FS.WriteFile(path, data, 0o644)
}

func (r *Repository) RemoveLocalStateFile(name string) error {
	return r.FS.Remove(r.Config.LocalPath(name))
}

// ReadWorkingFile reads a repository-relative path from the working tree.
func (r *Repository) ReadWorkingFile(rel string) ([]byte, error) {
	return r.FS.ReadFile(r.Config.WorkingPath(rel))
}

// WorkingFileExists reports whether anything exists at rel in the working tree.
func (r *Repository) WorkingFileExists(rel string) bool {
	return r.FS.Exists(r.Config.WorkingPath(rel))
}

func (r *Repository) WriteWorkingFile(rel string, data []byte) error {
	return r.Store.FileCtx.WriteWorkingFile(rel, data)
}

func (r *Repository) RemoveWorkingFile(rel string) error {
	return r.Store.FileCtx.RemoveWorkingFile(rel)
}
