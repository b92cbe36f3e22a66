package repo

import (
	"github.com/keshon/bvc/internal/repo/meta"
	"github.com/keshon/bvc/internal/repo/store/fileset"
)

// Tree loads the fileset of a commit. The empty id is the empty tree.
func (r *Repository) Tree(commitID string) (fileset.Fileset, error) {
	if commitID == "" {
		return fileset.Fileset{}, nil
	}
	c, err := r.Meta.GetCommit(commitID)
	if err != nil {
		return fileset.Fileset{}, err
	}
	return r.Store.FilesetCtx.Load(c.FilesetID)
}

// FileContent returns the bytes of path as recorded in commitID.
func (r *Repository) FileContent(commitID, path string) ([]byte, bool, error) {
	tree, err := r.Tree(commitID)
	if err != nil {
		return nil, false, err
	}
	e, ok := tree.Lookup(path)
	if !ok {
		return nil, false, nil
	}
	data, err := r.Store.FileCtx.ReadContent(e)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Log walks first parents from HEAD, newest first. limit <= 0 means all.
func (r *Repository) Log(limit int) ([]*meta.Commit, error) {
	head, err := r.Meta.HeadCommitID()
	if err != nil {
		return nil, err
	}
	commits, err := r.Meta.Ancestors(head)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(commits) > limit {
		commits = commits[:limit]
	}
	return commits, nil
}
