package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/logging"
	"github.com/keshon/bvc/internal/repo"
)

// CreateOptions describe the snapshot commit.
type CreateOptions struct {
	Message string
	Author  string
	Date    time.Time
	// Clean resets the working copy to p1 after a successful create.
	Clean bool
}

// Result is a created snapshot.
type Result struct {
	CommitID   string
	MetadataID string
	Metadata   *Metadata
	// Warnings collects non-fatal cleanup failures.
	Warnings error
}

// Builder creates snapshot commits.
type Builder struct {
	Repo     *repo.Repository
	Store    ContentStore
	Registry *Registry
	Log      logrus.FieldLogger
}

func NewBuilder(r *repo.Repository, log logrus.FieldLogger) *Builder {
	log = logging.OrDiscard(log)
	return &Builder{
		Repo:     r,
		Store:    r.Store.BlockCtx,
		Registry: NewRegistry(r, log),
		Log:      log,
	}
}

// Create snapshots the working copy. It returns nil when there is nothing
// to record.
func (b *Builder) Create(opts CreateOptions) (*Result, error) {
	wl, err := b.Repo.WLock()
	if err != nil {
		return nil, err
	}
	defer wl.Release()
	sl, err := b.Repo.Lock()
	if err != nil {
		return nil, err
	}
	defer sl.Release()

	st, err := b.Repo.Status()
	if err != nil {
		return nil, err
	}
	res, err := b.commit(st, opts)
	if err != nil || res == nil {
		return nil, err
	}

	// The commit and the list update are separate transactions. A crash in
	// between leaves a valid snapshot commit that list does not show; unhide
	// makes it visible again.
	tr, err := b.Repo.Transaction("update-snapshot-list")
	if err != nil {
		return nil, err
	}
	defer tr.Release()
	if err := b.Registry.Update(tr, []string{res.CommitID}, nil); err != nil {
		return nil, err
	}
	if err := tr.Close(); err != nil {
		return nil, err
	}

	if opts.Clean {
		res.Warnings = b.CleanWorkingCopy(res.Metadata)
	}
	return res, nil
}

func (b *Builder) commit(st repo.Status, opts CreateOptions) (*Result, error) {
	md, err := Capture(st, b.Repo)
	if err != nil {
		return nil, err
	}
	mdID, err := md.Persist(b.Store)
	if err != nil {
		return nil, fmt.Errorf("persist snapshot metadata: %w", err)
	}
	extra := map[string]string{MetadataKey: mdID}
	b.Log.WithField("extra", extra).Debug("snapshot extra")

	files := st.TrackedChanges()
	if len(files) == 0 && md.Empty() {
		return nil, nil
	}

	message, author := opts.Message, opts.Author
	if message == "" || author == "" {
		ini, err := b.Repo.Settings()
		if err != nil {
			return nil, err
		}
		if message == "" {
			message = ini.SnapshotMessage()
		}
		if author == "" {
			author = ini.Author()
		}
	}
	if message == "" {
		message = config.DefaultSnapshotMessage
	}

	tr, err := b.Repo.Transaction("snapshot")
	if err != nil {
		return nil, err
	}
	defer tr.Release()

	id, err := b.Repo.CommitFiles(tr, repo.CommitRequest{
		Files:   files,
		Message: message,
		Author:  author,
		Date:    opts.Date,
		Extra:   extra,
	})
	if err != nil {
		return nil, err
	}
	if err := tr.Close(); err != nil {
		return nil, err
	}
	return &Result{CommitID: id, MetadataID: mdID, Metadata: md}, nil
}

// CleanWorkingCopy brings the working copy back to p1: tracked changes are
// reverted, unknown files purged and captured local state files removed.
// Every failure is a warning. The caller holds the working-tree lock.
func (b *Builder) CleanWorkingCopy(md *Metadata) error {
	p1, _, err := b.Repo.Meta.Parents()
	if err != nil {
		return b.warn(fmt.Errorf("%w: failed to clean the working copy: %v", ErrIOFailure, err))
	}
	if err := b.Repo.Update(p1, repo.UpdateOptions{Clean: true}); err != nil {
		return b.warn(fmt.Errorf("%w: failed to clean the working copy: %v", ErrIOFailure, err))
	}

	var warnings error
	_, purgeErr := b.Repo.Purge()
	for _, e := range multierr.Errors(purgeErr) {
		warnings = multierr.Append(warnings, b.warn(fmt.Errorf("%w: %v", ErrIOFailure, e)))
	}
	if md != nil {
		for _, f := range md.LocalState {
			err := b.Repo.RemoveLocalStateFile(f.Path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				warnings = multierr.Append(warnings, b.warn(fmt.Errorf("%w: %s cannot be removed: %v", ErrIOFailure, f.Path, err)))
			}
		}
	}
	return warnings
}

func (b *Builder) warn(err error) error {
	b.Log.Warn(err.Error())
	return err
}
