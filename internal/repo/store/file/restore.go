package file

import (
	"bytes"
	"fmt"
	"path"

	"github.com/keshon/bvc/internal/util"
)

// ReadContent reassembles an entry's bytes from the block store.
func (fc *FileContext) ReadContent(e Entry) ([]byte, error) {
	var buf bytes.Buffer
	for _, b := range e.Blocks {
		data, err := fc.BlockCtx.Read(b.Hash)
		if err != nil {
			return nil, fmt.Errorf("missing block %s for %s: %w", b.Hash, e.Path, err)
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// RestoreFile writes an entry into the working tree atomically.
func (fc *FileContext) RestoreFile(e Entry) error {
	data, err := fc.ReadContent(e)
	if err != nil {
		return err
	}
	return fc.WriteWorkingFile(e.Path, data)
}

// WriteWorkingFile writes data at a repository-relative path, creating
// parent directories as needed.
func (fc *FileContext) WriteWorkingFile(rel string, data []byte) error {
	return util.WriteFileAtomic(fc.FS, fc.Abs(rel), data)
}

// RemoveWorkingFile deletes a file and prunes parent directories it leaves empty.
func (fc *FileContext) RemoveWorkingFile(rel string) error {
	if err := fc.FS.Remove(fc.Abs(rel)); err != nil {
		return err
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		entries, err := fc.FS.ReadDir(fc.Abs(dir))
		if err != nil || len(entries) > 0 {
			break
		}
		if err := fc.FS.Remove(fc.Abs(dir)); err != nil {
			break
		}
	}
	return nil
}
