package file

import (
	"fmt"
	"sort"
	"sync"

	"github.com/keshon/bvc/internal/progress"
	"github.com/keshon/bvc/internal/util"
)

// BuildEntry splits a working tree file into block references (content-defined).
func (fc *FileContext) BuildEntry(rel string) (Entry, error) {
	if fc.BlockCtx == nil {
		return Entry{}, fmt.Errorf("no BlockContext attached")
	}
	blocks, err := fc.BlockCtx.SplitFile(fc.Abs(rel))
	if err != nil {
		return Entry{}, fmt.Errorf("split %q: %w", rel, err)
	}
	return Entry{Path: rel, Blocks: blocks}, nil
}

// BuildEntries builds entries from a list of paths, sorted by path.
func (fc *FileContext) BuildEntries(paths []string) ([]Entry, error) {
	bar := progress.NewProgress(len(paths), "Scanning files ")
	defer bar.Finish()

	var (
		mu      sync.Mutex
		entries = make([]Entry, 0, len(paths))
	)
	err := util.Parallel(paths, util.WorkerCount(), func(p string) error {
		entry, err := fc.BuildEntry(p)
		if err != nil {
			return err
		}
		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()
		bar.Increment()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Write stores all blocks of an entry into store.
func (fc *FileContext) Write(e Entry) error {
	if fc.BlockCtx == nil {
		return fmt.Errorf("no BlockContext attached")
	}
	return fc.BlockCtx.Write(fc.Abs(e.Path), e.Blocks)
}
