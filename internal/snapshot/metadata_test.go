package snapshot_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc/internal/repo"
	"github.com/keshon/bvc/internal/repo/store/block"
	"github.com/keshon/bvc/internal/snapshot"
)

func (s *memStore) Put(data []byte) (string, error) {
	s.puts++
	id := block.HashBytes(data)
	s.blobs[id] = append([]byte(nil), data...)
	return id, nil
}

func (s *memStore) Get(id string) ([]byte, error) {
	data, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, block.ErrNotFound)
	}
	return data, nil
}

type fakeEngine struct {
	working map[string]string
	local   map[string]string
}

func (e fakeEngine) ReadWorkingFile(p string) ([]byte, error) {
	if s, ok := e.working[p]; ok {
		return []byte(s), nil
	}
	return nil, errors.New("no such file")
}

func (e fakeEngine) LocalStateFiles() []string { return repo.LocalStateFiles }

func (e fakeEngine) ReadLocalStateFile(name string) ([]byte, error) {
	if s, ok := e.local[name]; ok {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("open %s: %w", name, errNotExist)
}

func TestCaptureAndRoundTrip(t *testing.T) {
	eng := fakeEngine{
		working: map[string]string{"b.txt": "bee", "a.txt": "hi", "empty": ""},
		local:   map[string]string{"rebasestate": "state", "merge/state": "m"},
	}
	st := repo.Status{Unknown: []string{"a.txt", "b.txt", "empty"}, Missing: []string{"gone"}}

	md, err := snapshot.Capture(st, eng)
	require.NoError(t, err)
	assert.False(t, md.Empty())
	require.Len(t, md.LocalState, 2)
	assert.Equal(t, "merge/state", md.LocalState[0].Path)
	assert.True(t, md.HasLocalState("rebasestate"))

	store := newMemStore()
	id, err := md.Persist(store)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	loaded, err := snapshot.Load(store, id)
	require.NoError(t, err)
	assert.Equal(t, md, loaded)
	assert.Empty(t, loaded.Deleted[0].ContentRef)

	again, err := md.Persist(store)
	require.NoError(t, err)
	assert.Equal(t, id, again, "same capture, same id")
}

func TestEmptyMetadataUsesSentinel(t *testing.T) {
	md, err := snapshot.Capture(repo.Status{}, fakeEngine{})
	require.NoError(t, err)
	assert.True(t, md.Empty())

	store := newMemStore()
	id, err := md.Persist(store)
	require.NoError(t, err)
	assert.Equal(t, "", id)
	assert.Zero(t, store.puts)

	loaded, err := snapshot.Load(store, "")
	require.NoError(t, err)
	assert.Equal(t, md, loaded)
}

func TestLoadErrors(t *testing.T) {
	store := newMemStore()

	_, err := snapshot.Load(store, block.HashBytes([]byte("nope")))
	assert.ErrorIs(t, err, snapshot.ErrNotFound)

	for _, raw := range []string{
		`not json`,
		`{"version":"9","files":{}}`,
		`{"version":"1","files":{"unknown":[{"path":"a","oid":null}]}}`,
		`{"version":"1","files":{"deleted":[{"path":"a"},{"path":"a"}]}}`,
	} {
		id, _ := store.Put([]byte(raw))
		_, err := snapshot.Load(store, id)
		assert.ErrorIs(t, err, snapshot.ErrDeserialization, raw)
	}

	missing := block.HashBytes([]byte("content that was never stored"))
	id, _ := store.Put([]byte(`{"version":"1","files":{"unknown":[{"path":"a","oid":"` + missing + `"}]}}`))
	_, err = snapshot.Load(store, id)
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestLoadRejectsEscapingPaths(t *testing.T) {
	store := newMemStore()
	oid := func() string {
		id, _ := store.Put([]byte("x"))
		return id
	}()

	for _, ref := range []string{
		`"unknown":[{"path":"../outside","oid":"` + oid + `"}]`,
		`"unknown":[{"path":"/etc/passwd","oid":"` + oid + `"}]`,
		`"unknown":[{"path":".bvc/HEAD","oid":"` + oid + `"}]`,
		`"unknown":[{"path":"a/../../b","oid":"` + oid + `"}]`,
		`"deleted":[{"path":"dir/../../x"}]`,
		`"localvfsfiles":[{"path":"../config","oid":"` + oid + `"}]`,
		`"localvfsfiles":[{"path":"notastatefile","oid":"` + oid + `"}]`,
	} {
		id, _ := store.Put([]byte(`{"version":"1","files":{` + ref + `}}`))
		_, err := snapshot.Load(store, id)
		assert.ErrorIs(t, err, snapshot.ErrDeserialization, ref)
	}

	id, _ := store.Put([]byte(`{"version":"1","files":{"unknown":[{"path":"dir/ok.txt","oid":"` + oid + `"}],"localvfsfiles":[{"path":"merge/state","oid":"` + oid + `"}]}}`))
	md, err := snapshot.Load(store, id)
	require.NoError(t, err)
	assert.Equal(t, "dir/ok.txt", md.Unknown[0].Path)
	assert.True(t, md.HasLocalState("merge/state"))
}

func TestRefs(t *testing.T) {
	store := newMemStore()
	md := &snapshot.Metadata{
		Unknown:    []snapshot.FileEntry{{Path: "u", Content: []byte("one")}},
		LocalState: []snapshot.FileEntry{{Path: "rebasestate", Content: []byte("two")}},
		Deleted:    []snapshot.FileEntry{{Path: "d"}},
	}
	id, err := md.Persist(store)
	require.NoError(t, err)

	refs, err := snapshot.Refs(store, id)
	require.NoError(t, err)
	assert.Equal(t, []string{id, block.HashBytes([]byte("one")), block.HashBytes([]byte("two"))}, refs)

	refs, err = snapshot.Refs(store, "")
	require.NoError(t, err)
	assert.Empty(t, refs)

	refs, err = snapshot.Refs(store, block.HashBytes([]byte("absent")))
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
	assert.Len(t, refs, 1)
}
