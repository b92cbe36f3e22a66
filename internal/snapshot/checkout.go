package snapshot

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/keshon/bvc/internal/logging"
	"github.com/keshon/bvc/internal/repo"
	"github.com/keshon/bvc/internal/repo/meta"
)

// Resolve looks up rev and makes sure it is a snapshot commit.
func Resolve(r *repo.Repository, rev string) (*meta.Commit, error) {
	id, err := r.Meta.ResolveCommit(rev)
	if err != nil {
		if errors.Is(err, meta.ErrCommitNotFound) {
			return nil, fmt.Errorf("%s is not a valid revision id: %w", rev, ErrNotFound)
		}
		return nil, err
	}
	c, err := r.Meta.GetCommit(id)
	if err != nil {
		if errors.Is(err, meta.ErrCommitNotFound) {
			return nil, fmt.Errorf("%s: %w", rev, ErrNotFound)
		}
		return nil, err
	}
	if _, ok := c.Extra[MetadataKey]; !ok {
		return nil, fmt.Errorf("%s is %w id", rev, ErrInvalidSnapshot)
	}
	return c, nil
}

// CheckoutOptions control Checkout.
type CheckoutOptions struct {
	// Clean discards uncommitted changes and lets restored files overwrite
	// existing ones.
	Clean bool
	// Started, if set, is called with the full snapshot id once the
	// preconditions hold and before the working copy is touched.
	Started func(id string)
}

// CheckoutResult reports a finished checkout.
type CheckoutResult struct {
	CommitID string
	// Warnings collects per-file restore failures.
	Warnings error
}

// Restorer puts a working copy into the state a snapshot recorded.
type Restorer struct {
	Repo  *repo.Repository
	Store ContentStore
	Log   logrus.FieldLogger
}

func NewRestorer(r *repo.Repository, log logrus.FieldLogger) *Restorer {
	return &Restorer{Repo: r, Store: r.Store.BlockCtx, Log: logging.OrDiscard(log)}
}

// Checkout restores the snapshot rev. Failures before the metadata step are
// fatal; per-file failures while restoring metadata end up in Warnings.
func (rs *Restorer) Checkout(rev string, opts CheckoutOptions) (*CheckoutResult, error) {
	c, err := Resolve(rs.Repo, rev)
	if err != nil {
		return nil, err
	}

	wl, err := rs.Repo.WLock()
	if err != nil {
		return nil, err
	}
	defer wl.Release()

	st, err := rs.Repo.Status()
	if err != nil {
		return nil, err
	}
	if !st.Clean() && !opts.Clean {
		return nil, fmt.Errorf("%w: you must have a clean working copy to checkout on a snapshot, use --clean to bypass that", ErrPreconditionFailed)
	}
	if opts.Started != nil {
		opts.Started(c.ID)
	}

	if err := rs.Repo.Update(c.P1(), repo.UpdateOptions{Clean: opts.Clean}); err != nil {
		return nil, fmt.Errorf("update to %s: %w", meta.ShortID(c.P1()), err)
	}
	// only the snapshot's own files; p1 stays where the update put it
	files := repo.MatchFiles(c.Files)
	if err := rs.Repo.UpdateFiles(c.ID, files); err != nil {
		return nil, fmt.Errorf("apply snapshot changes: %w", err)
	}
	if err := rs.Repo.AddRemove(files); err != nil {
		return nil, fmt.Errorf("record snapshot changes: %w", err)
	}
	if p2 := c.P2(); p2 != "" {
		if err := rs.Repo.SetParents(c.P1(), p2); err != nil {
			return nil, err
		}
	}

	md, err := Load(rs.Store, c.Extra[MetadataKey])
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{CommitID: c.ID, Warnings: rs.RestoreMetadata(md, opts.Clean)}, nil
}

// RestoreMetadata deletes the files recorded as missing and writes back
// untracked and local state files. Existing files are kept unless clean is
// set. Nothing here aborts; failures are returned together.
func (rs *Restorer) RestoreMetadata(md *Metadata, clean bool) error {
	var warnings error
	warn := func(format string, args ...any) {
		err := fmt.Errorf("%w: "+format, append([]any{ErrIOFailure}, args...)...)
		rs.Log.Warn(err.Error())
		warnings = multierr.Append(warnings, err)
	}

	for _, f := range md.Deleted {
		rs.Log.Infof("will delete %s", f.Path)
		if err := rs.Repo.RemoveWorkingFile(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			warn("%s cannot be removed: %v", f.Path, err)
		}
	}

	for _, f := range md.Unknown {
		if !clean && rs.Repo.WorkingFileExists(f.Path) {
			rs.Log.Infof("skip adding %s, it exists", f.Path)
			continue
		}
		rs.Log.Infof("will add %s", f.Path)
		if err := rs.Repo.WriteWorkingFile(f.Path, f.Content); err != nil {
			warn("%s cannot be written: %v", f.Path, err)
		}
	}

	for _, f := range md.LocalState {
		if !clean && rs.Repo.LocalStateExists(f.Path) {
			rs.Log.Infof("skip adding %s, it exists", f.Path)
			continue
		}
		rs.Log.Infof("will add %s", f.Path)
		if err := rs.Repo.WriteLocalStateFile(f.Path, f.Content); err != nil {
			warn("%s cannot be written: %v", f.Path, err)
		}
	}
	return warnings
}
