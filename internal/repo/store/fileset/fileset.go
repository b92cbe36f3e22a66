package fileset

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/progress"
	"github.com/keshon/bvc/internal/repo/store/block"
	"github.com/keshon/bvc/internal/repo/store/file"
	"github.com/keshon/bvc/internal/util"
)

// Fileset is the full tree of a commit: every tracked file and its blocks.
type Fileset struct {
	ID    string       `json:"id"`
	Files []file.Entry `json:"files"`
}

// Lookup returns the entry for a repository-relative path.
func (f *Fileset) Lookup(p string) (file.Entry, bool) {
	i := sort.Search(len(f.Files), func(i int) bool { return f.Files[i].Path >= p })
	if i < len(f.Files) && f.Files[i].Path == p {
		return f.Files[i], true
	}
	return file.Entry{}, false
}

// Paths lists the fileset's paths in order.
func (f *Fileset) Paths() []string {
	out := make([]string, len(f.Files))
	for i, e := range f.Files {
		out[i] = e.Path
	}
	return out
}

// Map indexes the fileset by path.
func (f *Fileset) Map() map[string]file.Entry {
	m := make(map[string]file.Entry, len(f.Files))
	for _, e := range f.Files {
		m[e.Path] = e
	}
	return m
}

// New sorts entries and derives the fileset id from them. An empty tree
// has the empty id and is never stored.
func New(entries []file.Entry) Fileset {
	if len(entries) == 0 {
		return Fileset{}
	}
	sorted := append([]file.Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return Fileset{ID: HashFileset(sorted), Files: sorted}
}

// HashFileset generates a stable hash for a given fileset's paths and contents.
func HashFileset(entries []file.Entry) string {
	paths := make([]string, 0, len(entries))
	index := make(map[string]file.Entry, len(entries))
	for _, f := range entries {
		clean := path.Clean(f.Path)
		paths = append(paths, clean)
		index[clean] = f
	}
	sort.Strings(paths)

	data := make([]byte, 0, len(paths)*64)
	for _, p := range paths {
		data = append(data, p...)
		data = append(data, 0)
		for _, b := range index[p].Blocks {
			data = append(data, b.Hash...)
			data = append(data, '\n')
		}
	}
	h := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(h[:])
}

// FilesetContext persists filesets under .bvc/filesets.
type FilesetContext struct {
	Root   string
	Files  *file.FileContext
	Blocks *block.BlockContext
	FS     fs.FS
}

func NewFilesetContext(root string, files *file.FileContext, blocks *block.BlockContext, fs fs.FS) *FilesetContext {
	return &FilesetContext{Root: root, Files: files, Blocks: blocks, FS: fs}
}

// Encode returns the file a fileset belongs in and its encoding.
func (fc *FilesetContext) Encode(fs Fileset) (string, []byte, error) {
	if fs.ID == "" {
		return "", nil, fmt.Errorf("invalid fileset: missing ID")
	}
	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return "", nil, err
	}
	return filepath.Join(fc.Root, fs.ID+".json"), data, nil
}

// Save persists a Fileset JSON to disk.
func (fc *FilesetContext) Save(fs Fileset) error {
	if fs.ID == "" {
		return fmt.Errorf("invalid fileset: missing ID")
	}
	return util.WriteJSON(fc.FS, filepath.Join(fc.Root, fs.ID+".json"), fs)
}

// Load retrieves a Fileset by its ID from disk. The empty id is the empty tree.
func (fc *FilesetContext) Load(id string) (Fileset, error) {
	if id == "" {
		return Fileset{}, nil
	}
	var fs Fileset
	if err := util.ReadJSON(fc.FS, filepath.Join(fc.Root, id+".json"), &fs); err != nil {
		return Fileset{}, fmt.Errorf("failed to read fileset %q: %w", id, err)
	}
	return fs, nil
}

// WriteAndSaveBlocks stores the blocks of the listed paths of fs from the
// working tree.
func (fc *FilesetContext) WriteAndSaveBlocks(fs Fileset, paths []string) error {
	if fc.Blocks != nil {
		_ = fc.Blocks.CleanupTemp()
	}

	bar := progress.NewProgress(len(paths), "Storing files ")
	defer bar.Finish()

	entries := fs.Map()
	return util.Parallel(paths, util.WorkerCount(), func(p string) error {
		e, ok := entries[p]
		if !ok {
			return nil
		}
		if err := fc.Files.Write(e); err != nil {
			return fmt.Errorf("error storing file %s: %w", e.Path, err)
		}
		bar.Increment()
		return nil
	})
}
