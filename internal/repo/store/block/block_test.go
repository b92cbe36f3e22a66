package block_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/repo/store/block"
)

// Helper to create BlockContext with in-memory FS.
func newTestBC(t *testing.T) *block.BlockContext {
	t.Helper()
	mem := fs.NewMemoryFS()
	require.NoError(t, mem.MkdirAll("/repo/.bvc/blocks", 0o755))
	return block.NewBlockContext("/repo/.bvc/blocks", mem)
}

func countBlobs(t *testing.T, bc *block.BlockContext) int {
	t.Helper()
	entries, err := bc.FS.ReadDir(bc.BlocksDir)
	require.NoError(t, err)
	return len(entries)
}

func TestPutGet(t *testing.T) {
	bc := newTestBC(t)

	id, err := bc.Put([]byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, block.HashBytes([]byte("hi")), id)
	assert.True(t, bc.Has(id))

	data, err := bc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestPutIsIdempotent(t *testing.T) {
	bc := newTestBC(t)

	id1, err := bc.Put([]byte("same bytes"))
	require.NoError(t, err)
	id2, err := bc.Put([]byte("same bytes"))
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, countBlobs(t, bc), "one blob and no temp files")
}

func TestPutEmpty(t *testing.T) {
	bc := newTestBC(t)
	id, err := bc.Put(nil)
	require.NoError(t, err)

	data, err := bc.Get(id)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestGetNotFound(t *testing.T) {
	bc := newTestBC(t)

	_, err := bc.Get(block.HashBytes([]byte("never stored")))
	assert.True(t, errors.Is(err, block.ErrNotFound))

	_, err = bc.Get("../../etc/passwd")
	assert.True(t, errors.Is(err, block.ErrNotFound))
	assert.False(t, bc.Has("zz"))
}

func TestSplitWriteReadAll(t *testing.T) {
	bc := newTestBC(t)

	data := bytes.Repeat([]byte("0123456789abcdef"), 1<<20) // 16 MiB
	src := "/repo/big.bin"
	require.NoError(t, bc.FS.WriteFile(src, data, 0o644))

	blocks, err := bc.SplitFile(src)
	require.NoError(t, err)
	require.Greater(t, len(blocks), 1)

	var sum int64
	for _, b := range blocks {
		sum += b.Size
	}
	assert.EqualValues(t, len(data), sum)
	assert.Equal(t, blocks, block.SplitBytes(data), "splitting is deterministic")

	require.NoError(t, bc.Write(src, blocks))

	var out bytes.Buffer
	require.NoError(t, bc.ReadAll(&out, blocks))
	assert.True(t, bytes.Equal(data, out.Bytes()))
}

func TestSplitEmptyFile(t *testing.T) {
	bc := newTestBC(t)
	require.NoError(t, bc.FS.WriteFile("/repo/empty", nil, 0o644))

	blocks, err := bc.SplitFile("/repo/empty")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestVerifyBlock(t *testing.T) {
	bc := newTestBC(t)
	id, err := bc.Put([]byte("abcdef1234567890"))
	require.NoError(t, err)

	status, err := bc.VerifyBlock(id)
	require.NoError(t, err)
	assert.Equal(t, block.OK, status)

	missing := block.HashBytes([]byte("nope"))
	status, err = bc.VerifyBlock(missing)
	require.NoError(t, err)
	assert.Equal(t, block.Missing, status)

	// overwrite with garbage under the same name
	require.NoError(t, bc.FS.WriteFile(bc.BlocksDir+"/"+id+".bin", []byte("XXX"), 0o644))
	status, _ = bc.VerifyBlock(id)
	assert.Equal(t, block.Damaged, status)

	results := map[string]block.BlockStatus{}
	for c := range bc.Verify([]string{id, missing}, 2) {
		results[c.Hash] = c.Status
	}
	assert.Equal(t, block.Damaged, results[id])
	assert.Equal(t, block.Missing, results[missing])
}

func TestCleanupTemp(t *testing.T) {
	bc := newTestBC(t)
	id, err := bc.Put([]byte("123"))
	require.NoError(t, err)
	require.NoError(t, bc.FS.WriteFile(bc.BlocksDir+"/.tmp-xyz", []byte("partial"), 0o644))

	require.NoError(t, bc.CleanupTemp())

	assert.False(t, bc.FS.Exists(bc.BlocksDir+"/.tmp-xyz"))
	assert.True(t, bc.Has(id))
}
