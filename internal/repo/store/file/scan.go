package file

import (
	"io/fs"
	"sort"

	bvcfs "github.com/keshon/bvc/internal/fs"
)

// ScanFilesInWorkingTree returns every non-ignored file of the working tree
// as sorted repository-relative paths.
func (fc *FileContext) ScanFilesInWorkingTree() ([]string, error) {
	matcher := NewIgnore(fc.FS, fc.WorkingTreeDir)

	var paths []string
	err := bvcfs.Walk(fc.FS, fc.WorkingTreeDir, func(path string, d fs.DirEntry) error {
		rel, err := fc.Rel(path)
		if err != nil {
			return err
		}
		if matcher.Match(rel) {
			if d.IsDir() {
				return bvcfs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
