package snapshot_test

import (
	iofs "io/fs"
	"path"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/repo"
	"github.com/keshon/bvc/internal/snapshot"
)

const root = "/wt"

type fixture struct {
	t    *testing.T
	fs   *fs.MemoryFS
	repo *repo.Repository
	log  *logrus.Logger
	hook *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mfs := fs.NewMemoryFS()
	require.NoError(t, mfs.MkdirAll(root, 0o755))
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	r, err := repo.Init(root, mfs, repo.WithLogger(log))
	require.NoError(t, err)
	return &fixture{t: t, fs: mfs, repo: r, log: log, hook: hook}
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	p := path.Join(root, rel)
	require.NoError(f.t, f.fs.MkdirAll(path.Dir(p), 0o755))
	require.NoError(f.t, f.fs.WriteFile(p, []byte(content), 0o644))
}

func (f *fixture) remove(rel string) {
	f.t.Helper()
	require.NoError(f.t, f.fs.Remove(path.Join(root, rel)))
}

func (f *fixture) read(rel string) string {
	f.t.Helper()
	data, err := f.fs.ReadFile(path.Join(root, rel))
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) exists(rel string) bool {
	return f.fs.Exists(path.Join(root, rel))
}

func (f *fixture) commit(msg string) string {
	f.t.Helper()
	require.NoError(f.t, f.repo.AddRemove(repo.MatchAll()))
	id, err := f.repo.Commit(msg, "tester")
	require.NoError(f.t, err)
	return id
}

func (f *fixture) builder() *snapshot.Builder {
	return snapshot.NewBuilder(f.repo, f.log)
}

func (f *fixture) restorer() *snapshot.Restorer {
	return snapshot.NewRestorer(f.repo, f.log)
}

func (f *fixture) create(opts snapshot.CreateOptions) *snapshot.Result {
	f.t.Helper()
	if opts.Date.IsZero() {
		opts.Date = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	res, err := f.builder().Create(opts)
	require.NoError(f.t, err)
	return res
}

// memStore is a ContentStore that counts writes.
type memStore struct {
	blobs map[string][]byte
	puts  int
}

func newMemStore() *memStore { return &memStore{blobs: map[string][]byte{}} }

var errNotExist = iofs.ErrNotExist
