package util_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/util"
)

func TestWriteReadJSON(t *testing.T) {
	m := fs.NewMemoryFS()
	type doc struct {
		Name string `json:"name"`
	}

	require.NoError(t, util.WriteJSON(m, "/repo/.bvc/x.json", doc{Name: "a"}))

	var got doc
	require.NoError(t, util.ReadJSON(m, "/repo/.bvc/x.json", &got))
	assert.Equal(t, "a", got.Name)

	entries, err := m.ReadDir("/repo/.bvc")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestRemoveIfExists(t *testing.T) {
	m := fs.NewMemoryFS()
	require.NoError(t, util.RemoveIfExists(m, "/missing"))
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, util.SortedUnique([]string{"c", "a"}, []string{"b", "a"}))
	assert.Empty(t, util.SortedUnique())
}

func TestParallel(t *testing.T) {
	var n int64
	err := util.Parallel([]int{1, 2, 3, 4}, 2, func(i int) error {
		atomic.AddInt64(&n, int64(i))
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 10, n)

	err = util.Parallel([]int{1, 2}, 2, func(i int) error {
		if i == 2 {
			return errors.New("boom")
		}
		return nil
	})
	assert.EqualError(t, err, "boom")
}
