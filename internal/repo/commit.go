package repo

import (
	"errors"
	"fmt"
	"time"

	"github.com/keshon/bvc/internal/repo/meta"
	"github.com/keshon/bvc/internal/repo/store/file"
	"github.com/keshon/bvc/internal/repo/store/fileset"
)

// ErrNothingToCommit is returned by Commit when there are no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// CommitRequest describes a commit over an explicit file set.
type CommitRequest struct {
	Files   []string
	Message string
	Author  string
	Date    time.Time
	Extra   map[string]string
}

// CommitFiles records a commit whose tree is p1's tree with Files taken from
// the working copy. Files that are gone or staged for removal are dropped.
// The commit's parents are the working parents; HEAD and branches stay put.
func (r *Repository) CommitFiles(tr *Transaction, req CommitRequest) (string, error) {
	if !tr.Active() {
		return "", ErrNoTransaction
	}

	p1, p2, err := r.Meta.Parents()
	if err != nil {
		return "", err
	}
	base, err := r.Tree(p1)
	if err != nil {
		return "", fmt.Errorf("load parent tree: %w", err)
	}
	index, err := r.Store.FileCtx.IndexMap()
	if err != nil {
		return "", err
	}

	entries := base.Map()
	var written []string
	for _, p := range req.Files {
		if ie, ok := index[p]; (ok && ie.Removed) || !r.Store.FileCtx.Exists(p) {
			delete(entries, p)
			continue
		}
		e, err := r.Store.FileCtx.BuildEntry(p)
		if err != nil {
			return "", err
		}
		entries[p] = e
		written = append(written, p)
	}

	list := make([]file.Entry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	tree := fileset.New(list)

	// blocks are content addressed; writing them ahead of the transaction
	// leaves at most unreferenced blobs behind
	if err := r.Store.FilesetCtx.WriteAndSaveBlocks(tree, written); err != nil {
		return "", err
	}
	if tree.ID != "" {
		path, data, err := r.Store.FilesetCtx.Encode(tree)
		if err != nil {
			return "", err
		}
		if err := tr.WriteFile(path, data); err != nil {
			return "", err
		}
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	var parents []string
	if p1 != "" {
		parents = append(parents, p1)
	}
	if p2 != "" {
		parents = append(parents, p2)
	}
	branch := ""
	if ref, err := r.Meta.GetHeadRef(); err == nil {
		branch = ref.Branch()
	}

	c := &meta.Commit{
		Parents:   parents,
		Branch:    branch,
		Author:    req.Author,
		Message:   req.Message,
		Timestamp: date.Format(time.RFC3339),
		FilesetID: tree.ID,
		Files:     append([]string(nil), req.Files...),
		Extra:     req.Extra,
	}
	path, data, err := r.Meta.EncodeCommit(c)
	if err != nil {
		return "", err
	}
	if err := tr.WriteFile(path, data); err != nil {
		return "", err
	}
	return c.ID, nil
}

// Commit records the tracked changes of the working copy on the current
// branch and clears the index and any pending merge.
func (r *Repository) Commit(message, author string) (string, error) {
	wl, err := r.WLock()
	if err != nil {
		return "", err
	}
	defer wl.Release()
	sl, err := r.Lock()
	if err != nil {
		return "", err
	}
	defer sl.Release()

	st, err := r.Status()
	if err != nil {
		return "", err
	}
	_, p2, err := r.Meta.Parents()
	if err != nil {
		return "", err
	}
	files := st.TrackedChanges()
	if len(files) == 0 && p2 == "" {
		return "", ErrNothingToCommit
	}

	tr, err := r.Transaction("commit")
	if err != nil {
		return "", err
	}
	defer tr.Release()

	id, err := r.CommitFiles(tr, CommitRequest{Files: files, Message: message, Author: author})
	if err != nil {
		return "", err
	}
	if err := tr.Close(); err != nil {
		return "", err
	}

	if err := r.Meta.AdvanceHead(id); err != nil {
		return "", err
	}
	if err := r.Meta.SetMergeHead(""); err != nil {
		return "", err
	}
	if err := r.Store.FileCtx.ClearIndex(); err != nil {
		return "", err
	}
	r.Log.WithField("commit", meta.ShortID(id)).Debug("committed")
	return id, nil
}
