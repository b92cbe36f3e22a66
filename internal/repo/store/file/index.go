package file

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/util"
)

// IndexEntry is a staged change: an add/modify carrying the new blocks, or
// a removal.
type IndexEntry struct {
	Entry
	Removed bool `json:"removed,omitempty"`
}

func (fc *FileContext) indexPath() string {
	return filepath.Join(fc.RepoDir, config.IndexFile)
}

// SaveIndexReplace overwrites the index completely.
func (fc *FileContext) SaveIndexReplace(entries []IndexEntry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	return util.WriteFileAtomic(fc.FS, fc.indexPath(), data)
}

// SaveIndexMerge merges the given entries with any existing index on disk.
// Existing entries with the same path are updated; others are preserved.
func (fc *FileContext) SaveIndexMerge(newEntries []IndexEntry) error {
	existing, err := fc.LoadIndex()
	if err != nil {
		return err
	}

	entryMap := make(map[string]IndexEntry, len(existing)+len(newEntries))
	for _, e := range existing {
		entryMap[e.Path] = e
	}
	for _, e := range newEntries {
		entryMap[e.Path] = e
	}

	merged := make([]IndexEntry, 0, len(entryMap))
	for _, p := range util.SortedKeys(entryMap) {
		merged = append(merged, entryMap[p])
	}
	return fc.SaveIndexReplace(merged)
}

// ClearIndex removes the staging index.
func (fc *FileContext) ClearIndex() error {
	return util.RemoveIfExists(fc.FS, fc.indexPath())
}

// LoadIndex loads staged entries from disk.
func (fc *FileContext) LoadIndex() ([]IndexEntry, error) {
	data, err := fc.FS.ReadFile(fc.indexPath())
	if err != nil {
		if fc.FS.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal index: %w", err)
	}
	return entries, nil
}

// IndexMap returns the index keyed by path.
func (fc *FileContext) IndexMap() (map[string]IndexEntry, error) {
	entries, err := fc.LoadIndex()
	if err != nil {
		return nil, err
	}
	m := make(map[string]IndexEntry, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}
	return m, nil
}
