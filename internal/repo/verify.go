package repo

import (
	"sort"

	"github.com/keshon/bvc/internal/progress"
	"github.com/keshon/bvc/internal/repo/store/block"
	"github.com/keshon/bvc/internal/repo/store/fileset"
	"github.com/keshon/bvc/internal/util"
)

// ReferencedBlocks maps every block used by a commit tree to the ids of the
// commits using it.
func (r *Repository) ReferencedBlocks() (map[string][]string, error) {
	ids, err := r.Meta.ListCommitIDs()
	if err != nil {
		return nil, err
	}
	refs := make(map[string][]string)
	trees := make(map[string]fileset.Fileset)
	for _, id := range ids {
		c, err := r.Meta.GetCommit(id)
		if err != nil {
			return nil, err
		}
		tree, ok := trees[c.FilesetID]
		if !ok {
			if tree, err = r.Store.FilesetCtx.Load(c.FilesetID); err != nil {
				return nil, err
			}
			trees[c.FilesetID] = tree
		}
		for _, e := range tree.Files {
			for _, b := range e.Blocks {
				refs[b.Hash] = append(refs[b.Hash], id)
			}
		}
	}
	for h := range refs {
		refs[h] = util.SortedUnique(refs[h])
	}
	return refs, nil
}

// VerifyBlocks rehashes the given blocks and returns those that are missing
// or damaged, ordered by hash.
func (r *Repository) VerifyBlocks(hashes []string) []block.BlockCheck {
	bar := progress.NewProgress(len(hashes), "Checking blocks")
	defer bar.Finish()

	var bad []block.BlockCheck
	for bc := range r.Store.BlockCtx.Verify(hashes, util.WorkerCount()) {
		bar.Increment()
		if bc.Status != block.OK {
			bad = append(bad, bc)
		}
	}
	sort.Slice(bad, func(i, j int) bool { return bad[i].Hash < bad[j].Hash })
	return bad
}
