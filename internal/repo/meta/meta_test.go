package meta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/repo/meta"
)

func newMeta(t *testing.T) *meta.MetaContext {
	t.Helper()
	mfs := fs.NewMemoryFS()
	require.NoError(t, mfs.MkdirAll("/wt", 0o755))
	mc, err := meta.NewMeta(config.NewRepoConfig("/wt"), mfs)
	require.NoError(t, err)
	return mc
}

func TestInitLayout(t *testing.T) {
	mc := newMeta(t)

	data, err := mc.FS.ReadFile(mc.Config.HeadFile())
	require.NoError(t, err)
	assert.Equal(t, "ref: branches/main", string(data))

	id, err := mc.HeadCommitID()
	require.NoError(t, err)
	assert.Empty(t, id)

	branches, err := mc.ListBranches()
	require.NoError(t, err)
	assert.Equal(t, []meta.Branch{{Name: "main"}}, branches)
}

func TestCommitIDIsContentHash(t *testing.T) {
	mc := newMeta(t)

	a := &meta.Commit{Message: "one", Timestamp: "t", Files: []string{"b", "a"}}
	id, err := mc.CreateCommit(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, a.Files)

	b := &meta.Commit{Message: "one", Timestamp: "t", Files: []string{"a", "b"}}
	id2, err := mc.CreateCommit(b)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	c := &meta.Commit{Message: "one", Timestamp: "t", Files: []string{"a", "b"}, Extra: map[string]string{"k": "v"}}
	id3, err := mc.CreateCommit(c)
	require.NoError(t, err)
	assert.NotEqual(t, id, id3)

	got, err := mc.GetCommit(id3)
	require.NoError(t, err)
	assert.Equal(t, "v", got.Extra["k"])
}

func TestGetCommitNotFound(t *testing.T) {
	mc := newMeta(t)
	_, err := mc.GetCommit("deadbeef")
	assert.ErrorIs(t, err, meta.ErrCommitNotFound)
	_, err = mc.GetCommit("../x")
	assert.ErrorIs(t, err, meta.ErrCommitNotFound)
}

func TestResolveCommit(t *testing.T) {
	mc := newMeta(t)

	id, err := mc.CreateCommit(&meta.Commit{Message: "m", Branch: "main"})
	require.NoError(t, err)
	require.NoError(t, mc.AdvanceHead(id))

	for _, rev := range []string{id, id[:6], "main", "HEAD"} {
		got, err := mc.ResolveCommit(rev)
		require.NoError(t, err, rev)
		assert.Equal(t, id, got, rev)
	}

	_, err = mc.ResolveCommit("zzzz")
	assert.ErrorIs(t, err, meta.ErrCommitNotFound)
	_, err = mc.ResolveCommit(id[:2])
	assert.ErrorIs(t, err, meta.ErrCommitNotFound)
}

func TestDetachedHeadAndParents(t *testing.T) {
	mc := newMeta(t)

	id, err := mc.CreateCommit(&meta.Commit{Message: "m"})
	require.NoError(t, err)
	require.NoError(t, mc.DetachHead(id))

	ref, err := mc.GetHeadRef()
	require.NoError(t, err)
	assert.True(t, ref.IsDetached())
	_, err = mc.GetCurrentBranch()
	assert.Error(t, err)

	require.NoError(t, mc.SetMergeHead("other"))
	p1, p2, err := mc.Parents()
	require.NoError(t, err)
	assert.Equal(t, id, p1)
	assert.Equal(t, "other", p2)

	require.NoError(t, mc.SetMergeHead(""))
	_, p2, err = mc.Parents()
	require.NoError(t, err)
	assert.Empty(t, p2)

	// main did not move
	last, err := mc.GetLastCommitID("main")
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestBranches(t *testing.T) {
	mc := newMeta(t)
	id, err := mc.CreateCommit(&meta.Commit{Message: "m"})
	require.NoError(t, err)
	require.NoError(t, mc.AdvanceHead(id))

	_, err = mc.CreateBranch("feature")
	require.NoError(t, err)
	_, err = mc.CreateBranch("feature")
	assert.Error(t, err)

	last, err := mc.GetLastCommitID("feature")
	require.NoError(t, err)
	assert.Equal(t, id, last)

	branches, err := mc.ListBranches()
	require.NoError(t, err)
	assert.Equal(t, []meta.Branch{{Name: "feature"}, {Name: "main"}}, branches)
}

func TestAncestors(t *testing.T) {
	mc := newMeta(t)
	a, err := mc.CreateCommit(&meta.Commit{Message: "a"})
	require.NoError(t, err)
	b, err := mc.CreateCommit(&meta.Commit{Message: "b", Parents: []string{a}})
	require.NoError(t, err)

	chain, err := mc.Ancestors(b)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "a", chain[1].Message)
}
