package fileset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/repo/store/block"
	"github.com/keshon/bvc/internal/repo/store/file"
	"github.com/keshon/bvc/internal/repo/store/fileset"
)

func entry(p, h string) file.Entry {
	return file.Entry{Path: p, Blocks: []block.BlockRef{{Hash: h, Size: 1}}}
}

func TestHashDependsOnPathsAndContent(t *testing.T) {
	a := fileset.New([]file.Entry{entry("b", "2"), entry("a", "1")})
	b := fileset.New([]file.Entry{entry("a", "1"), entry("b", "2")})
	c := fileset.New([]file.Entry{entry("a", "1"), entry("c", "2")})

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, []string{"a", "b"}, a.Paths())
	assert.Empty(t, fileset.New(nil).ID)
}

func TestLookup(t *testing.T) {
	f := fileset.New([]file.Entry{entry("a", "1"), entry("c", "3")})
	e, ok := f.Lookup("c")
	require.True(t, ok)
	assert.Equal(t, "3", e.Blocks[0].Hash)
	_, ok = f.Lookup("b")
	assert.False(t, ok)
}

func TestSaveLoad(t *testing.T) {
	mfs := fs.NewMemoryFS()
	require.NoError(t, mfs.MkdirAll("/r/filesets", 0o755))
	fc := fileset.NewFilesetContext("/r/filesets", nil, nil, mfs)

	f := fileset.New([]file.Entry{entry("a", "1")})
	require.NoError(t, fc.Save(f))

	got, err := fc.Load(f.ID)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	empty, err := fc.Load("")
	require.NoError(t, err)
	assert.Empty(t, empty.Files)

	_, err = fc.Load("nope")
	assert.Error(t, err)
}
