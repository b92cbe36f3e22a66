package repo

import (
	"fmt"
	"sort"
	"sync"

	"github.com/keshon/bvc/internal/repo/store/file"
	"github.com/keshon/bvc/internal/util"
)

// Status describes the working tree relative to its first parent and the index.
type Status struct {
	Modified []string // tracked, content changed
	Added    []string // staged, not in the parent
	Removed  []string // tracked, staged for removal
	Missing  []string // tracked, gone from disk without being removed
	Unknown  []string // on disk, not tracked
}

// Clean reports whether nothing at all differs.
func (s Status) Clean() bool {
	return len(s.Modified)+len(s.Added)+len(s.Removed)+len(s.Missing)+len(s.Unknown) == 0
}

// TrackedChanges is the set of files a commit would record.
func (s Status) TrackedChanges() []string {
	return util.SortedUnique(s.Modified, s.Added, s.Removed)
}

// Dirty reports changes to tracked files, ignoring unknown ones.
func (s Status) Dirty() bool {
	return len(s.Modified)+len(s.Added)+len(s.Removed)+len(s.Missing) > 0
}

// Status compares the working tree against p1's tree and the index.
func (r *Repository) Status() (Status, error) {
	p1, _, err := r.Meta.Parents()
	if err != nil {
		return Status{}, err
	}
	tree, err := r.Tree(p1)
	if err != nil {
		return Status{}, fmt.Errorf("load parent tree: %w", err)
	}
	tracked := tree.Map()

	index, err := r.Store.FileCtx.IndexMap()
	if err != nil {
		return Status{}, err
	}

	onDisk, err := r.Store.FileCtx.ScanFilesInWorkingTree()
	if err != nil {
		return Status{}, fmt.Errorf("scan working tree: %w", err)
	}
	present := make(map[string]bool, len(onDisk))

	var (
		st        Status
		candidate []string
	)
	for _, p := range onDisk {
		present[p] = true
		ie, staged := index[p]
		_, isTracked := tracked[p]
		switch {
		case staged && ie.Removed:
			st.Removed = append(st.Removed, p)
		case staged && !isTracked:
			st.Added = append(st.Added, p)
		case isTracked:
			candidate = append(candidate, p)
		default:
			st.Unknown = append(st.Unknown, p)
		}
	}

	for p := range tracked {
		if present[p] {
			continue
		}
		if ie, ok := index[p]; ok && ie.Removed {
			st.Removed = append(st.Removed, p)
		} else {
			st.Missing = append(st.Missing, p)
		}
	}
	for p, ie := range index {
		if _, ok := tracked[p]; !ok && !present[p] && !ie.Removed {
			st.Missing = append(st.Missing, p)
		}
	}

	modified, err := r.changedFiles(candidate, tracked)
	if err != nil {
		return Status{}, err
	}
	st.Modified = modified

	for _, l := range []*[]string{&st.Modified, &st.Added, &st.Removed, &st.Missing, &st.Unknown} {
		sort.Strings(*l)
	}
	return st, nil
}

// changedFiles returns the paths whose working copy differs from the tracked entry.
func (r *Repository) changedFiles(paths []string, tracked map[string]file.Entry) ([]string, error) {
	var (
		mu  sync.Mutex
		out []string
	)
	err := util.Parallel(paths, util.WorkerCount(), func(p string) error {
		want := tracked[p]
		fi, err := r.FS.Stat(r.Config.WorkingPath(p))
		if err != nil {
			return err
		}
		var size int64
		for _, b := range want.Blocks {
			size += b.Size
		}
		changed := fi.Size() != size
		if !changed {
			got, err := r.Store.FileCtx.BuildEntry(p)
			if err != nil {
				return err
			}
			changed = !got.Equal(&want)
		}
		if changed {
			mu.Lock()
			out = append(out, p)
			mu.Unlock()
		}
		return nil
	})
	return out, err
}
