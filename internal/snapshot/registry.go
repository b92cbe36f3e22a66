package snapshot

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/logging"
	"github.com/keshon/bvc/internal/repo"
	"github.com/keshon/bvc/internal/repo/meta"
)

const registryHeader = "v1"

// Summary is what list shows about a snapshot.
type Summary struct {
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}

// Entry is one visible snapshot.
type Entry struct {
	ID string `json:"id"`
	Summary
}

// Registry is the set of snapshot commits shown by list. Hidden snapshots
// stay valid commits; they are only left out of the set.
type Registry struct {
	Repo *repo.Repository
	Log  logrus.FieldLogger

	pendingTr *repo.Transaction
	pending   []string
}

func NewRegistry(r *repo.Repository, log logrus.FieldLogger) *Registry {
	return &Registry{Repo: r, Log: logging.OrDiscard(log)}
}

func (g *Registry) path() string {
	return g.Repo.Config.LocalPath(config.SnapshotListFile)
}

// ids returns the visible set, including changes pending in an active transaction.
func (g *Registry) ids() ([]string, error) {
	if g.pendingTr.Active() {
		return append([]string(nil), g.pending...), nil
	}
	data, err := g.Repo.FS.ReadFile(g.path())
	if err != nil {
		if g.Repo.FS.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot list: %w", err)
	}
	return parseRegistry(data)
}

func parseRegistry(data []byte) ([]string, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return nil, sc.Err()
	}
	if v := strings.TrimSpace(sc.Text()); v != registryHeader {
		return nil, fmt.Errorf("snapshot list: unsupported version %q", v)
	}
	var ids []string
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Update adds and removes ids from the visible set. The new list is written
// when tr closes.
func (g *Registry) Update(tr *repo.Transaction, add, remove []string) error {
	if !tr.Active() {
		return fmt.Errorf("update snapshot list: %w", repo.ErrNoTransaction)
	}
	current, err := g.ids()
	if err != nil {
		return err
	}

	set := make(map[string]bool, len(current)+len(add))
	for _, id := range current {
		set[id] = true
	}
	for _, id := range add {
		set[id] = true
	}
	for _, id := range remove {
		delete(set, id)
	}
	next := make([]string, 0, len(set))
	for id := range set {
		next = append(next, id)
	}
	sort.Strings(next)

	g.pendingTr, g.pending = tr, next
	return tr.AddFileGenerator(config.SnapshotListFile, g.path(), func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, registryHeader); err != nil {
			return err
		}
		for _, id := range next {
			if _, err := fmt.Fprintln(w, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Contains reports whether id is visible.
func (g *Registry) Contains(id string) (bool, error) {
	ids, err := g.ids()
	if err != nil {
		return false, err
	}
	i := sort.SearchStrings(ids, id)
	return i < len(ids) && ids[i] == id, nil
}

// List returns the visible snapshots. Ids whose commit is gone are skipped.
func (g *Registry) List() ([]Entry, error) {
	ids, err := g.ids()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		c, err := g.Repo.Meta.GetCommit(id)
		if errors.Is(err, meta.ErrCommitNotFound) {
			g.Log.WithField("snapshot", id).Warn("listed snapshot has no commit, skipping")
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			ID:      id,
			Summary: Summary{Message: c.Message, Author: c.Author, Date: c.Timestamp},
		})
	}
	return entries, nil
}

// Hide removes id from the visible set.
func (g *Registry) Hide(id string) error {
	return g.mutate("hide-snapshot", nil, []string{id})
}

// Unhide adds id back to the visible set.
func (g *Registry) Unhide(id string) error {
	return g.mutate("unhide-snapshot", []string{id}, nil)
}

func (g *Registry) mutate(name string, add, remove []string) error {
	wl, err := g.Repo.WLock()
	if err != nil {
		return err
	}
	defer wl.Release()

	l, err := g.Repo.Lock()
	if err != nil {
		return err
	}
	defer l.Release()

	tr, err := g.Repo.Transaction(name)
	if err != nil {
		return err
	}
	defer tr.Release()

	if err := g.Update(tr, add, remove); err != nil {
		return err
	}
	return tr.Close()
}
