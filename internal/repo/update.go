package repo

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/keshon/bvc/internal/progress"
	"github.com/keshon/bvc/internal/repo/store/file"
	"github.com/keshon/bvc/internal/repo/store/fileset"
	"github.com/keshon/bvc/internal/util"
)

// ErrDirty is returned when an update would discard uncommitted changes.
var ErrDirty = errors.New("uncommitted changes")

// UpdateOptions control Update.
type UpdateOptions struct {
	// Clean discards uncommitted changes instead of refusing.
	Clean bool
	// Branch attaches HEAD to this branch; its tip must be the target.
	Branch string
}

// Update checks out commitID: every file of its tree is written, tracked
// files of the old tree that the target lacks are removed, the index and
// second parent are cleared and p1 moves to commitID. The caller holds the
// working-tree lock.
func (r *Repository) Update(commitID string, opts UpdateOptions) error {
	st, err := r.Status()
	if err != nil {
		return err
	}
	if st.Dirty() && !opts.Clean {
		return fmt.Errorf("cannot update: %w (use --clean to discard)", ErrDirty)
	}

	p1, _, err := r.Meta.Parents()
	if err != nil {
		return err
	}
	old, err := r.Tree(p1)
	if err != nil {
		return err
	}
	target, err := r.Tree(commitID)
	if err != nil {
		return err
	}

	if err := r.restoreTree(target, target.Paths()); err != nil {
		return err
	}
	targetMap := target.Map()
	for _, p := range old.Paths() {
		if _, keep := targetMap[p]; keep || !r.WorkingFileExists(p) {
			continue
		}
		if err := r.RemoveWorkingFile(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}

	if err := r.Store.FileCtx.ClearIndex(); err != nil {
		return err
	}
	if opts.Branch != "" {
		if _, err := r.Meta.SetHeadRef(opts.Branch); err != nil {
			return err
		}
		return r.Meta.SetMergeHead("")
	}
	return r.SetParents(commitID, "")
}

// UpdateFiles writes the files of commitID's tree selected by m and removes
// the explicitly matched paths that tree does not have. Parents and index are
// left alone.
func (r *Repository) UpdateFiles(commitID string, m Matcher) error {
	tree, err := r.Tree(commitID)
	if err != nil {
		return err
	}
	var selected []string
	for _, p := range tree.Paths() {
		if m.Match(p) {
			selected = append(selected, p)
		}
	}
	if err := r.restoreTree(tree, selected); err != nil {
		return err
	}
	for _, p := range m.Files() {
		if _, ok := tree.Lookup(p); ok || !r.WorkingFileExists(p) {
			continue
		}
		if err := r.RemoveWorkingFile(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// restoreTree writes the given paths of tree into the working tree, skipping
// files whose content already matches.
func (r *Repository) restoreTree(tree fileset.Fileset, paths []string) error {
	bar := progress.NewProgress(len(paths), "Restoring files ")
	defer bar.Finish()

	entries := tree.Map()
	return util.Parallel(paths, util.WorkerCount(), func(p string) error {
		defer bar.Increment()
		want := entries[p]
		if r.Store.FileCtx.Exists(p) {
			if got, err := r.Store.FileCtx.BuildEntry(p); err == nil && got.Equal(&want) {
				return nil
			}
		}
		if err := r.Store.FileCtx.RestoreFile(want); err != nil {
			return fmt.Errorf("restore %s: %w", p, err)
		}
		return nil
	})
}

// AddRemove stages the matched files: present files that are new or differ
// from p1 become adds, matched tracked files that are gone become removals.
func (r *Repository) AddRemove(m Matcher) error {
	p1, _, err := r.Meta.Parents()
	if err != nil {
		return err
	}
	tree, err := r.Tree(p1)
	if err != nil {
		return err
	}

	paths := m.Files()
	if paths == nil {
		onDisk, err := r.Store.FileCtx.ScanFilesInWorkingTree()
		if err != nil {
			return err
		}
		paths = util.SortedUnique(onDisk, tree.Paths())
	}

	var staged []file.IndexEntry
	for _, p := range paths {
		tracked, isTracked := tree.Lookup(p)
		if !r.Store.FileCtx.Exists(p) {
			if isTracked {
				staged = append(staged, file.IndexEntry{Entry: file.Entry{Path: p}, Removed: true})
			}
			continue
		}
		e, err := r.Store.FileCtx.BuildEntry(p)
		if err != nil {
			return err
		}
		if isTracked && e.Equal(&tracked) {
			continue
		}
		staged = append(staged, file.IndexEntry{Entry: e})
	}
	if len(staged) == 0 {
		return nil
	}
	return r.Store.FileCtx.SaveIndexMerge(staged)
}

// Forget unstages paths, dropping their index entries.
func (r *Repository) Forget(paths []string) error {
	entries, err := r.Store.FileCtx.LoadIndex()
	if err != nil {
		return err
	}
	drop := MatchFiles(paths)
	kept := entries[:0]
	for _, e := range entries {
		if !drop.Match(e.Path) {
			kept = append(kept, e)
		}
	}
	return r.Store.FileCtx.SaveIndexReplace(kept)
}

// Purge deletes unknown files. Failures do not stop the sweep; they are
// returned together.
func (r *Repository) Purge() ([]string, error) {
	st, err := r.Status()
	if err != nil {
		return nil, err
	}
	var (
		removed []string
		errs    error
	)
	for _, p := range st.Unknown {
		if err := r.RemoveWorkingFile(p); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", p, err))
			continue
		}
		removed = append(removed, p)
	}
	sort.Strings(removed)
	return removed, errs
}

// SetParents sets the working parents. An attached HEAD stays on its branch
// while the branch tip already is p1; otherwise HEAD is detached at p1.
func (r *Repository) SetParents(p1, p2 string) error {
	ref, err := r.Meta.GetHeadRef()
	if err != nil {
		return err
	}
	stay := false
	if !ref.IsDetached() {
		tip, err := r.Meta.GetLastCommitID(ref.Branch())
		if err != nil {
			return err
		}
		stay = tip == p1
	}
	if !stay {
		if p1 == "" {
			return fmt.Errorf("cannot detach HEAD at an empty revision")
		}
		if err := r.Meta.DetachHead(p1); err != nil {
			return err
		}
	}
	return r.Meta.SetMergeHead(p2)
}
