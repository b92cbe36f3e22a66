package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/keshon/bvc/internal/fs"
)

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func WriteFileAtomic(fsys fs.FS, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir %q: %w", dir, err)
	}

	tmpFile, tmpPath, err := fsys.CreateTempFile(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer fsys.Remove(tmpPath) // no-op once renamed

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return fsys.Rename(tmpPath, path)
}

// WriteJSON writes a JSON file atomically using the FS interface.
func WriteJSON(fsys fs.FS, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(fsys, path, data)
}

// ReadJSON reads a JSON file and unmarshals it into v
func ReadJSON(fsys fs.FS, path string, v any) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// RemoveIfExists removes path, treating a missing file as success.
func RemoveIfExists(fsys fs.FS, path string) error {
	if err := fsys.Remove(path); err != nil && !fsys.IsNotExist(err) {
		return err
	}
	return nil
}

// SortedKeys returns the keys of a map sorted alphabetically.
func SortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortedUnique returns the sorted set of the given strings.
func SortedUnique(lists ...[]string) []string {
	set := make(map[string]struct{})
	for _, l := range lists {
		for _, s := range l {
			set[s] = struct{}{}
		}
	}
	return SortedKeys(set)
}

// WorkerCount returns the number of workers for concurrent operations.
func WorkerCount() int {
	return runtime.NumCPU()
}

// Parallel runs fn concurrently for each item in inputs, limited by workerLimit.
func Parallel[T any](inputs []T, workerLimit int, fn func(T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	if workerLimit <= 0 {
		workerLimit = 1
	}

	sem := make(chan struct{}, workerLimit)
	errCh := make(chan error, len(inputs))
	var wg sync.WaitGroup

	for _, in := range inputs {
		sem <- struct{}{}
		wg.Add(1)
		go func(x T) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(x); err != nil {
				errCh <- err
			}
		}(in)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

// FileMode is the permission used for every file the tool writes.
const FileMode os.FileMode = 0o644
