package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS is a pure in-memory filesystem for tests or lightweight storage.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
	seq   int

	// Fault, when set, is consulted before every mutating operation
	// ("write", "remove", "rename", "mkdir"); a non-nil result is returned
	// as the operation's error.
	Fault func(op, path string) error
}

func NewMemoryFS() *MemoryFS {
	f := &MemoryFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]struct{}),
	}
	f.dirs["/"] = struct{}{}
	f.dirs["."] = struct{}{}
	return f
}

// normalize paths
func clean(p string) string {
	if p == "" {
		return "."
	}
	return filepath.ToSlash(filepath.Clean(p))
}

func (f *MemoryFS) fault(op, p string) error {
	if f.Fault == nil {
		return nil
	}
	return f.Fault(op, p)
}

func (f *MemoryFS) dirExists(p string) bool {
	_, ok := f.dirs[p]
	return ok
}

// FS Interface Implementation

func (f *MemoryFS) Open(p string) (io.ReadSeekCloser, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.files[clean(p)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return &memReadSeekCloser{Reader: bytes.NewReader(data)}, nil
}

type memReadSeekCloser struct {
	*bytes.Reader
}

func (m *memReadSeekCloser) Close() error { return nil }

func (f *MemoryFS) ReadFile(p string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.files[clean(p)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (f *MemoryFS) WriteFile(p string, data []byte, perm os.FileMode) error {
	p = clean(p)
	if err := f.fault("write", p); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	dir := path.Dir(p)
	if !f.dirExists(dir) {
		return fmt.Errorf("write: dir %q does not exist: %w", dir, fs.ErrNotExist)
	}
	if f.dirExists(p) {
		return fmt.Errorf("write: %q is a directory", p)
	}
	f.files[p] = append([]byte(nil), data...)
	return nil
}

func (f *MemoryFS) MkdirAll(p string, perm os.FileMode) error {
	p = clean(p)
	if err := f.fault("mkdir", p); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	cur := ""
	if strings.HasPrefix(p, "/") {
		cur = "/"
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		cur = path.Join(cur, seg)
		if _, ok := f.files[cur]; ok {
			return fmt.Errorf("mkdir: %q is a file", cur)
		}
		f.dirs[cur] = struct{}{}
	}
	return nil
}

func (f *MemoryFS) Remove(p string) error {
	p = clean(p)
	if err := f.fault("remove", p); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[p]; ok {
		delete(f.files, p)
		return nil
	}
	if _, ok := f.dirs[p]; ok {
		if len(f.childrenLocked(p)) > 0 {
			return fmt.Errorf("remove %q: directory not empty", p)
		}
		delete(f.dirs, p)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotExist}
}

func (f *MemoryFS) Rename(oldp, newp string) error {
	oldp, newp = clean(oldp), clean(newp)
	if err := f.fault("rename", newp); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	// file rename
	if data, ok := f.files[oldp]; ok {
		if !f.dirExists(path.Dir(newp)) {
			return &fs.PathError{Op: "rename", Path: newp, Err: fs.ErrNotExist}
		}
		delete(f.files, oldp)
		f.files[newp] = data
		return nil
	}

	// dir rename
	if _, ok := f.dirs[oldp]; ok {
		delete(f.dirs, oldp)
		f.dirs[newp] = struct{}{}
		return nil
	}

	return &fs.PathError{Op: "rename", Path: oldp, Err: fs.ErrNotExist}
}

func (f *MemoryFS) Stat(p string) (os.FileInfo, error) {
	p = clean(p)
	f.mu.RLock()
	defer f.mu.RUnlock()
	if data, ok := f.files[p]; ok {
		return &fakeInfo{name: path.Base(p), size: int64(len(data)), dir: false}, nil
	}
	if _, ok := f.dirs[p]; ok {
		return &fakeInfo{name: path.Base(p), dir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
}

func (f *MemoryFS) ReadDir(p string) ([]os.DirEntry, error) {
	p = clean(p)
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.dirExists(p) {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}
	out := f.childrenLocked(p)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// childrenLocked lists direct children of dir p. Caller holds f.mu.
func (f *MemoryFS) childrenLocked(p string) []os.DirEntry {
	prefix := p
	switch prefix {
	case ".":
		prefix = ""
	case "/":
	default:
		prefix += "/"
	}

	var out []os.DirEntry
	seen := map[string]bool{}

	// dirs first
	for dp := range f.dirs {
		if dp == p || !strings.HasPrefix(dp, prefix) || (prefix == "" && strings.HasPrefix(dp, "/")) {
			continue
		}
		name := strings.Split(strings.TrimPrefix(dp, prefix), "/")[0]
		if name != "" && name != "." && !seen[name] {
			seen[name] = true
			out = append(out, fakeDirEntry{name: name, isDir: true})
		}
	}

	// then files
	for fp, data := range f.files {
		if !strings.HasPrefix(fp, prefix) || (prefix == "" && strings.HasPrefix(fp, "/")) {
			continue
		}
		rest := strings.TrimPrefix(fp, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		if rest != "" && !seen[rest] {
			seen[rest] = true
			out = append(out, fakeDirEntry{name: rest, isDir: false, size: int64(len(data))})
		}
	}
	return out
}

func (f *MemoryFS) CreateTempFile(dir, pattern string) (io.WriteCloser, string, error) {
	dir = clean(dir)
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirExists(dir) {
		return nil, "", &fs.PathError{Op: "createtemp", Path: dir, Err: fs.ErrNotExist}
	}

	f.seq++
	tmpName := path.Join(dir, strings.Replace(pattern, "*", fmt.Sprintf("%d", f.seq), 1))
	if !strings.Contains(pattern, "*") {
		tmpName = path.Join(dir, fmt.Sprintf("%s%d", pattern, f.seq))
	}
	f.files[tmpName] = nil

	buf := &bytes.Buffer{}
	wc := &memWriteCloser{
		buf: buf,
		onClose: func() error {
			if err := f.fault("write", tmpName); err != nil {
				return err
			}
			f.mu.Lock()
			defer f.mu.Unlock()
			f.files[tmpName] = append([]byte(nil), buf.Bytes()...)
			return nil
		},
	}
	return wc, tmpName, nil
}

type memWriteCloser struct {
	buf     *bytes.Buffer
	onClose func() error
}

func (m *memWriteCloser) Write(p []byte) (int, error) { return m.buf.Write(p) }
func (m *memWriteCloser) Close() error {
	if m.onClose != nil {
		return m.onClose()
	}
	return nil
}

func (f *MemoryFS) IsNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }
func (f *MemoryFS) IsDir(p string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dirExists(clean(p))
}
func (f *MemoryFS) Exists(p string) bool {
	p = clean(p)
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, f1 := f.files[p]
	_, d1 := f.dirs[p]
	return f1 || d1
}

// Helpers

type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (f *fakeInfo) Name() string { return f.name }
func (f *fakeInfo) Size() int64  { return f.size }
func (f *fakeInfo) Mode() fs.FileMode {
	if f.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (f *fakeInfo) ModTime() time.Time { return time.Time{} }
func (f *fakeInfo) IsDir() bool        { return f.dir }
func (f *fakeInfo) Sys() interface{}   { return nil }

type fakeDirEntry struct {
	name  string
	isDir bool
	size  int64
}

func (d fakeDirEntry) Name() string { return d.name }
func (d fakeDirEntry) IsDir() bool  { return d.isDir }
func (d fakeDirEntry) Type() fs.FileMode {
	if d.isDir {
		return fs.ModeDir
	}
	return 0
}
func (d fakeDirEntry) Info() (os.FileInfo, error) {
	return &fakeInfo{name: d.name, dir: d.isDir, size: d.size}, nil
}
