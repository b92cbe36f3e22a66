package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/keshon/bvc/internal/config"
)

var (
	// ErrNoTransaction is returned when an operation needs an active transaction.
	ErrNoTransaction = errors.New("no active transaction")
	// ErrNotLocked is returned when a transaction is opened without the store lock.
	ErrNotLocked = errors.New("store lock is not held")
)

type txState int

const (
	txActive txState = iota
	txClosed
	txAborted
)

type generator struct {
	path string
	gen  func(io.Writer) error
}

// Transaction buffers store writes and applies them together on Close.
// File generators registered under the same name replace each other and run
// once, at close time.
type Transaction struct {
	Name string

	repo       *Repository
	state      txState
	writes     map[string][]byte
	generators map[string]generator
}

// Transaction opens a transaction. The store lock must be held and only one
// transaction may be active at a time.
func (r *Repository) Transaction(name string) (*Transaction, error) {
	if !r.Locker.Held(config.StoreLockFile) {
		return nil, fmt.Errorf("transaction %s: %w", name, ErrNotLocked)
	}
	if r.active != nil {
		return nil, fmt.Errorf("transaction %s: %s is still active", name, r.active.Name)
	}
	tr := &Transaction{
		Name:       name,
		repo:       r,
		writes:     make(map[string][]byte),
		generators: make(map[string]generator),
	}
	r.active = tr
	return tr, nil
}

// Active reports whether the transaction can still take writes.
func (tr *Transaction) Active() bool {
	return tr != nil && tr.state == txActive
}

// WriteFile records a write of data to path.
func (tr *Transaction) WriteFile(path string, data []byte) error {
	if !tr.Active() {
		return ErrNoTransaction
	}
	tr.writes[path] = append([]byte(nil), data...)
	return nil
}

// AddFileGenerator registers gen to produce path when the transaction closes.
func (tr *Transaction) AddFileGenerator(name, path string, gen func(io.Writer) error) error {
	if !tr.Active() {
		return ErrNoTransaction
	}
	tr.generators[name] = generator{path: path, gen: gen}
	return nil
}

// Close runs generators and commits every recorded write. All files are
// staged to temporary names before any of them is renamed into place.
func (tr *Transaction) Close() error {
	if !tr.Active() {
		return ErrNoTransaction
	}
	defer tr.finish(txClosed)

	names := make([]string, 0, len(tr.generators))
	for name := range tr.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		g := tr.generators[name]
		var buf bytes.Buffer
		if err := g.gen(&buf); err != nil {
			return fmt.Errorf("transaction %s: generate %s: %w", tr.Name, name, err)
		}
		tr.writes[g.path] = buf.Bytes()
	}

	fsys := tr.repo.FS
	paths := make([]string, 0, len(tr.writes))
	for p := range tr.writes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	staged := make(map[string]string, len(paths))
	cleanup := func() {
		for _, tmp := range staged {
			_ = fsys.Remove(tmp)
		}
	}
	for _, p := range paths {
		dir := filepath.Dir(p)
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			cleanup()
			return fmt.Errorf("transaction %s: %w", tr.Name, err)
		}
		w, tmp, err := fsys.CreateTempFile(dir, ".tmp-*")
		if err != nil {
			cleanup()
			return fmt.Errorf("transaction %s: %w", tr.Name, err)
		}
		staged[p] = tmp
		if _, err := w.Write(tr.writes[p]); err != nil {
			w.Close()
			cleanup()
			return fmt.Errorf("transaction %s: write %s: %w", tr.Name, p, err)
		}
		if err := w.Close(); err != nil {
			cleanup()
			return fmt.Errorf("transaction %s: write %s: %w", tr.Name, p, err)
		}
	}
	for _, p := range paths {
		if err := fsys.Rename(staged[p], p); err != nil {
			cleanup()
			return fmt.Errorf("transaction %s: commit %s: %w", tr.Name, p, err)
		}
		delete(staged, p)
	}
	return nil
}

// Abort discards every recorded write.
func (tr *Transaction) Abort() {
	if tr.Active() {
		tr.finish(txAborted)
	}
}

// Release aborts the transaction unless it was closed.
func (tr *Transaction) Release() {
	tr.Abort()
}

func (tr *Transaction) finish(s txState) {
	tr.state = s
	tr.writes = nil
	tr.generators = nil
	if tr.repo.active == tr {
		tr.repo.active = nil
	}
}
