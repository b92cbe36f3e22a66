package fs_test

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bvcfs "github.com/keshon/bvc/internal/fs"
)

func TestMemoryFS_WriteReadFile(t *testing.T) {
	m := bvcfs.NewMemoryFS()

	require.NoError(t, m.MkdirAll("/work/dir/sub", 0o755))
	require.NoError(t, m.WriteFile("/work/dir/sub/file.txt", []byte("hello world"), 0o644))

	read, err := m.ReadFile("/work/dir/sub/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(read))
	assert.True(t, m.IsDir("/work/dir"))
}

func TestMemoryFS_WriteFileNonExistentDir(t *testing.T) {
	m := bvcfs.NewMemoryFS()
	err := m.WriteFile("/nope/file.txt", []byte("x"), 0o644)
	require.Error(t, err)
	assert.True(t, m.IsNotExist(err))
}

func TestMemoryFS_OpenAndSeek(t *testing.T) {
	m := bvcfs.NewMemoryFS()
	require.NoError(t, m.MkdirAll("d", 0o755))
	require.NoError(t, m.WriteFile("d/f", []byte("abcdef"), 0o644))

	f, err := m.Open("d/f")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Seek(3, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "def", string(rest))
}

func TestMemoryFS_Remove(t *testing.T) {
	m := bvcfs.NewMemoryFS()
	require.NoError(t, m.MkdirAll("/d", 0o755))
	require.NoError(t, m.WriteFile("/d/f", []byte("x"), 0o644))

	require.Error(t, m.Remove("/d"), "non-empty dir must not be removed")
	require.NoError(t, m.Remove("/d/f"))
	assert.False(t, m.Exists("/d/f"))
	require.NoError(t, m.Remove("/d"))

	err := m.Remove("/d/f")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFS_TempAndRename(t *testing.T) {
	m := bvcfs.NewMemoryFS()
	require.NoError(t, m.MkdirAll("/r", 0o755))

	w, tmp, err := m.CreateTempFile("/r", ".tmp-*")
	require.NoError(t, err)
	_, err = w.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, m.Rename(tmp, "/r/final"))
	data, err := m.ReadFile("/r/final")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.False(t, m.Exists(tmp))
}

func TestMemoryFS_ReadDirSorted(t *testing.T) {
	m := bvcfs.NewMemoryFS()
	require.NoError(t, m.MkdirAll("/w/b", 0o755))
	require.NoError(t, m.WriteFile("/w/c.txt", nil, 0o644))
	require.NoError(t, m.WriteFile("/w/a.txt", nil, 0o644))
	require.NoError(t, m.WriteFile("/w/b/deep.txt", nil, 0o644))

	entries, err := m.ReadDir("/w")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a.txt", "b", "c.txt"}, names)
}

func TestMemoryFS_Fault(t *testing.T) {
	m := bvcfs.NewMemoryFS()
	require.NoError(t, m.MkdirAll("/w", 0o755))
	m.Fault = func(op, path string) error {
		if op == "write" && path == "/w/locked" {
			return errors.New("permission denied")
		}
		return nil
	}
	require.Error(t, m.WriteFile("/w/locked", []byte("x"), 0o644))
	require.NoError(t, m.WriteFile("/w/open", []byte("x"), 0o644))
}

func TestWalk(t *testing.T) {
	m := bvcfs.NewMemoryFS()
	require.NoError(t, m.MkdirAll("/w/skip", 0o755))
	require.NoError(t, m.MkdirAll("/w/sub", 0o755))
	require.NoError(t, m.WriteFile("/w/skip/x", nil, 0o644))
	require.NoError(t, m.WriteFile("/w/sub/y", nil, 0o644))
	require.NoError(t, m.WriteFile("/w/z", nil, 0o644))

	var files []string
	err := bvcfs.Walk(m, "/w", func(path string, d fs.DirEntry) error {
		if d.IsDir() && d.Name() == "skip" {
			return bvcfs.SkipDir
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/w/sub/y", "/w/z"}, files)
}
