package snapshot_test

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/command/registry"
	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/repo/meta"
	core "github.com/keshon/bvc/internal/snapshot"
)

const root = "/wt"

type cli struct {
	t  *testing.T
	fs *fs.MemoryFS
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	mfs := fs.NewMemoryFS()
	require.NoError(t, mfs.MkdirAll(root, 0o755))
	c := &cli{t: t, fs: mfs}
	c.mustRun("init", "-q")
	return c
}

func (c *cli) run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	app := &command.App{Out: &out, Err: &errOut, FS: c.fs, Dir: root}
	cmd := registry.NewRootCommand(app)
	cmd.SetArgs(append(args, "--user=tester"))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "bvc %s", strings.Join(args, " "))
	return out
}

func (c *cli) write(rel, content string) {
	c.t.Helper()
	p := path.Join(root, rel)
	require.NoError(c.t, c.fs.MkdirAll(path.Dir(p), 0o755))
	require.NoError(c.t, c.fs.WriteFile(p, []byte(content), 0o644))
}

func (c *cli) read(rel string) string {
	c.t.Helper()
	data, err := c.fs.ReadFile(path.Join(root, rel))
	require.NoError(c.t, err)
	return string(data)
}

func (c *cli) exists(rel string) bool {
	return c.fs.Exists(path.Join(root, rel))
}

// base commits tracked.txt and gone.txt on main.
func (c *cli) base() {
	c.t.Helper()
	c.write("tracked.txt", "v1")
	c.write("gone.txt", "bye")
	c.mustRun("add")
	c.mustRun("commit", "-m", "base")
}

func (c *cli) create(args ...string) string {
	c.t.Helper()
	out := c.mustRun(append([]string{"snapshot", "create"}, args...)...)
	require.True(c.t, strings.HasPrefix(out, "snapshot "), out)
	require.True(c.t, strings.HasSuffix(out, " created\n"), out)
	return strings.TrimSuffix(strings.TrimPrefix(out, "snapshot "), " created\n")
}

func TestCreateNothingChanged(t *testing.T) {
	c := newCLI(t)
	assert.Equal(t, "nothing changed\n", c.mustRun("snapshot", "create"))

	c.base()
	assert.Equal(t, "nothing changed\n", c.mustRun("snapshot", "create", "-m", "empty"))
}

func TestCreateShowCheckout(t *testing.T) {
	c := newCLI(t)
	c.base()

	c.write("tracked.txt", "v2")
	c.write("notes/untracked.txt", "scratch")
	require.NoError(t, c.fs.Remove(path.Join(root, "gone.txt")))

	id := c.create("-m", "wip")
	assert.Equal(t, "On branch main\n\n", strings.SplitAfterN(c.mustRun("status"), "\n\n", 2)[0])

	show := c.mustRun("snapshot", "show", meta.ShortID(id))
	assert.Contains(t, show, "commit "+id)
	assert.Contains(t, show, "author: tester")
	assert.Contains(t, show, "    wip")
	assert.Contains(t, show, "+v2")
	assert.Contains(t, show, "\n===\nUntracked changes:\n===\n")
	assert.Contains(t, show, "? notes/untracked.txt")
	assert.Contains(t, show, "! gone.txt")

	out, err := c.run("snapshot", "checkout", id)
	require.ErrorIs(t, err, core.ErrPreconditionFailed)
	assert.Empty(t, out)
	assert.Contains(t, err.Error(), "you must have a clean working copy")

	c.write("tracked.txt", "local edit")
	out = c.mustRun("snapshot", "checkout", "--clean", id)
	assert.Equal(t, "will checkout on "+id+"\ncheckout complete\n", out)

	assert.Equal(t, "v2", c.read("tracked.txt"))
	assert.Equal(t, "scratch", c.read("notes/untracked.txt"))
	assert.False(t, c.exists("gone.txt"))
}

func TestCreateClean(t *testing.T) {
	c := newCLI(t)
	c.base()

	c.write("tracked.txt", "v2")
	c.write("untracked.txt", "scratch")
	c.create("--clean")

	assert.Equal(t, "v1", c.read("tracked.txt"))
	assert.False(t, c.exists("untracked.txt"))
	assert.Empty(t, c.mustRun("status", "-s"))
}

func TestCheckoutRequiresSnapshot(t *testing.T) {
	c := newCLI(t)
	c.base()

	_, err := c.run("snapshot", "checkout", "main")
	require.ErrorIs(t, err, core.ErrInvalidSnapshot)

	_, err = c.run("snapshot", "show", "ffffffffffffffff")
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, "ffffffffffffffff is not a valid revision id: content not found", err.Error())
}

func TestMissingRevision(t *testing.T) {
	c := newCLI(t)
	for _, sub := range []string{"show", "checkout", "hide", "unhide"} {
		_, err := c.run("snapshot", sub)
		require.ErrorIs(t, err, command.ErrNoRevision, sub)
		assert.Equal(t, "you must specify a snapshot revision id", err.Error())
	}
}

func TestListHideUnhide(t *testing.T) {
	c := newCLI(t)
	c.base()

	c.write("a.txt", "a")
	first := c.create("-m", "first\nsecond line")
	c.write("b.txt", "b")
	second := c.create()

	list := c.mustRun("snapshot", "list")
	assert.Contains(t, list, meta.ShortID(first))
	assert.Contains(t, list, meta.ShortID(second))
	assert.Contains(t, list, " tester first\n")
	assert.NotContains(t, list, "second line")
	assert.Contains(t, list, " tester snapshot\n")

	c.mustRun("snapshot", "hide", first)
	c.mustRun("snapshot", "hide", first)

	var entries []core.Entry
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("snapshot", "list", "--json")), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, second, entries[0].ID)
	assert.Equal(t, "snapshot", entries[0].Message)

	// hidden snapshots stay usable
	assert.Contains(t, c.mustRun("snapshot", "show", first), "commit "+first)

	c.mustRun("snapshot", "unhide", meta.ShortID(first))
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("snapshot", "list", "--json")), &entries))
	assert.Len(t, entries, 2)
}
