package file_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/repo/store/block"
	"github.com/keshon/bvc/internal/repo/store/file"
)

func newFC(t *testing.T) (*file.FileContext, *fs.MemoryFS) {
	t.Helper()
	mfs := fs.NewMemoryFS()
	require.NoError(t, mfs.MkdirAll("/wt/.bvc/blocks", 0o755))
	bc := block.NewBlockContext("/wt/.bvc/blocks", mfs)
	return file.NewFileContext("/wt", "/wt/.bvc", bc, mfs), mfs
}

func TestScanSkipsRepoDirAndIgnored(t *testing.T) {
	fc, mfs := newFC(t)
	require.NoError(t, mfs.WriteFile("/wt/.bvc-ignore", []byte("# comment\n*.log\nbuild/**\n"), 0o644))
	require.NoError(t, mfs.MkdirAll("/wt/src/sub", 0o755))
	require.NoError(t, mfs.MkdirAll("/wt/build/out", 0o755))
	require.NoError(t, mfs.WriteFile("/wt/src/sub/a.go", []byte("a"), 0o644))
	require.NoError(t, mfs.WriteFile("/wt/b.txt", []byte("b"), 0o644))
	require.NoError(t, mfs.WriteFile("/wt/debug.log", []byte("x"), 0o644))
	require.NoError(t, mfs.WriteFile("/wt/build/out/bin", []byte("x"), 0o644))
	require.NoError(t, mfs.WriteFile("/wt/.bvc/HEAD", []byte("x"), 0o644))

	paths, err := fc.ScanFilesInWorkingTree()
	require.NoError(t, err)
	assert.Equal(t, []string{".bvc-ignore", "b.txt", "src/sub/a.go"}, paths)
}

func TestRel(t *testing.T) {
	fc, _ := newFC(t)

	rel, err := fc.Rel("/wt/a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", rel)

	rel, err = fc.Rel("a/../c")
	require.NoError(t, err)
	assert.Equal(t, "c", rel)

	_, err = fc.Rel("/elsewhere/x")
	assert.Error(t, err)
	_, err = fc.Rel("/wt")
	assert.Error(t, err)
}

func TestBuildWriteRestore(t *testing.T) {
	fc, mfs := newFC(t)
	require.NoError(t, mfs.MkdirAll("/wt/d", 0o755))
	require.NoError(t, mfs.WriteFile("/wt/d/f.txt", []byte("hello world"), 0o644))

	entries, err := fc.BuildEntries([]string{"d/f.txt"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, fc.Write(entries[0]))

	require.NoError(t, fc.RemoveWorkingFile("d/f.txt"))
	assert.False(t, fc.Exists("d/f.txt"))
	assert.False(t, mfs.Exists("/wt/d"), "empty parent pruned")

	require.NoError(t, fc.RestoreFile(entries[0]))
	data, err := mfs.ReadFile("/wt/d/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestReadContentMissingBlock(t *testing.T) {
	fc, _ := newFC(t)
	e := file.Entry{Path: "x", Blocks: []block.BlockRef{{Hash: "00000000000000000000000000000000", Size: 1}}}
	_, err := fc.ReadContent(e)
	assert.ErrorIs(t, err, block.ErrNotFound)
}

func TestIndexMergeAndClear(t *testing.T) {
	fc, _ := newFC(t)

	entries, err := fc.LoadIndex()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, fc.SaveIndexReplace([]file.IndexEntry{{Entry: file.Entry{Path: "b"}}}))
	require.NoError(t, fc.SaveIndexMerge([]file.IndexEntry{
		{Entry: file.Entry{Path: "a"}},
		{Entry: file.Entry{Path: "b"}, Removed: true},
	}))

	m, err := fc.IndexMap()
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.True(t, m["b"].Removed)
	assert.False(t, m["a"].Removed)

	require.NoError(t, fc.ClearIndex())
	require.NoError(t, fc.ClearIndex())
	entries, err = fc.LoadIndex()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntryEqual(t *testing.T) {
	a := &file.Entry{Path: "a", Blocks: []block.BlockRef{{Hash: "h", Size: 1}}}
	b := &file.Entry{Path: "b", Blocks: []block.BlockRef{{Hash: "h", Size: 1}}}
	c := &file.Entry{Path: "a"}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.True(t, (*file.Entry)(nil).Equal(nil))
}
