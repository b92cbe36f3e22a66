// Package lock provides the exclusive, non-reentrant locks that guard the
// working tree (wlock) and the store (lock).
package lock

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrHeld is returned when the lock is already held by this process.
	ErrHeld = errors.New("lock already held")
	// ErrTimeout is returned when another process keeps the lock.
	ErrTimeout = errors.New("timed out waiting for lock")
)

// Releaser releases an acquired lock. Release is safe to call twice.
type Releaser interface {
	Release() error
}

// Locker hands out named locks.
type Locker interface {
	Acquire(name string) (Releaser, error)
	Held(name string) bool
}

// claims tracks in-process holders so that re-acquiring fails instead of
// deadlocking.
type claims struct {
	mu    sync.Mutex
	names map[string]bool
}

func (c *claims) claim(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names == nil {
		c.names = make(map[string]bool)
	}
	if c.names[name] {
		return fmt.Errorf("%s: %w", name, ErrHeld)
	}
	c.names[name] = true
	return nil
}

func (c *claims) drop(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.names, name)
}

// Held reports whether name is currently held by this process.
func (c *claims) Held(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.names[name]
}

// FileLocker takes advisory file locks inside Dir.
type FileLocker struct {
	claims
	Dir     string
	Timeout time.Duration
}

func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{Dir: dir, Timeout: 5 * time.Second}
}

func (l *FileLocker) Acquire(name string) (Releaser, error) {
	if err := l.claim(name); err != nil {
		return nil, err
	}

	fl := flock.New(filepath.Join(l.Dir, name))
	ctx, cancel := context.WithTimeout(context.Background(), l.Timeout)
	defer cancel()

	ok, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !ok {
		l.drop(name)
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		return nil, fmt.Errorf("acquire %s: %w", name, err)
	}
	return &fileLock{name: name, fl: fl, owner: &l.claims}, nil
}

type fileLock struct {
	once  sync.Once
	name  string
	fl    *flock.Flock
	owner *claims
}

func (f *fileLock) Release() error {
	var err error
	f.once.Do(func() {
		err = f.fl.Unlock()
		f.owner.drop(f.name)
	})
	return err
}

// ProcessLocker only enforces in-process exclusivity. It backs repositories
// that live on an in-memory filesystem.
type ProcessLocker struct {
	claims
}

func NewProcessLocker() *ProcessLocker {
	return &ProcessLocker{}
}

func (l *ProcessLocker) Acquire(name string) (Releaser, error) {
	if err := l.claim(name); err != nil {
		return nil, err
	}
	return &processLock{name: name, owner: &l.claims}, nil
}

type processLock struct {
	once  sync.Once
	name  string
	owner *claims
}

func (p *processLock) Release() error {
	p.once.Do(func() { p.owner.drop(p.name) })
	return nil
}
