package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/repo"
)

const metadataVersion = "1"

// ContentStore is the content-addressed blob store metadata lives in.
type ContentStore interface {
	Put(data []byte) (string, error)
	Get(id string) ([]byte, error)
}

// EngineState gives capture access to the working copy and the engine's
// private files.
type EngineState interface {
	ReadWorkingFile(path string) ([]byte, error)
	LocalStateFiles() []string
	ReadLocalStateFile(name string) ([]byte, error)
}

// FileEntry is one file of the metadata. ContentRef is empty for deleted
// entries; Content is held in memory between capture and persist and after load.
type FileEntry struct {
	Path       string
	ContentRef string
	Content    []byte
}

// Metadata is the working copy state a commit cannot hold.
type Metadata struct {
	Unknown    []FileEntry // on disk, untracked
	Deleted    []FileEntry // tracked, missing from disk
	LocalState []FileEntry // interrupted-operation markers
}

// Empty reports whether there is nothing beyond tracked changes.
func (m *Metadata) Empty() bool {
	return len(m.Unknown) == 0 && len(m.Deleted) == 0 && len(m.LocalState) == 0
}

// HasLocalState reports whether name was captured among the local state files.
func (m *Metadata) HasLocalState(name string) bool {
	for _, f := range m.LocalState {
		if f.Path == name {
			return true
		}
	}
	return false
}

// Capture builds metadata from a status report: unknown files with their
// content, missing files, and whichever local state files exist.
func Capture(st repo.Status, es EngineState) (*Metadata, error) {
	md := &Metadata{}
	for _, p := range st.Unknown {
		data, err := es.ReadWorkingFile(p)
		if err != nil {
			return nil, fmt.Errorf("read untracked %s: %w", p, err)
		}
		md.Unknown = append(md.Unknown, FileEntry{Path: p, Content: content(data)})
	}
	for _, p := range st.Missing {
		md.Deleted = append(md.Deleted, FileEntry{Path: p})
	}
	for _, name := range es.LocalStateFiles() {
		data, err := es.ReadLocalStateFile(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		md.LocalState = append(md.LocalState, FileEntry{Path: name, Content: content(data)})
	}
	md.sort()
	return md, nil
}

func content(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}

func (m *Metadata) sort() {
	for _, l := range [][]FileEntry{m.Unknown, m.Deleted, m.LocalState} {
		sort.Slice(l, func(i, j int) bool { return l[i].Path < l[j].Path })
	}
}

// wire format
type fileRef struct {
	Path string  `json:"path"`
	OID  *string `json:"oid"`
}

type serialized struct {
	Version string `json:"version"`
	Files   struct {
		Deleted    []fileRef `json:"deleted"`
		LocalState []fileRef `json:"localvfsfiles"`
		Unknown    []fileRef `json:"unknown"`
	} `json:"files"`
}

// Persist stores every file's content and then the serialized lists, and
// returns the id of the latter. Empty metadata yields "" and writes nothing.
func (m *Metadata) Persist(store ContentStore) (string, error) {
	if m.Empty() {
		return "", nil
	}
	m.sort()

	put := func(list []FileEntry) ([]fileRef, error) {
		refs := make([]fileRef, 0, len(list))
		for i := range list {
			oid, err := store.Put(list[i].Content)
			if err != nil {
				return nil, fmt.Errorf("store %s: %w", list[i].Path, err)
			}
			list[i].ContentRef = oid
			refs = append(refs, fileRef{Path: list[i].Path, OID: &oid})
		}
		return refs, nil
	}

	var s serialized
	var err error
	s.Version = metadataVersion
	if s.Files.Unknown, err = put(m.Unknown); err != nil {
		return "", err
	}
	if s.Files.LocalState, err = put(m.LocalState); err != nil {
		return "", err
	}
	s.Files.Deleted = make([]fileRef, 0, len(m.Deleted))
	for _, f := range m.Deleted {
		s.Files.Deleted = append(s.Files.Deleted, fileRef{Path: f.Path})
	}

	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return store.Put(data)
}

// Load reads metadata and the content of its files. The empty id loads as
// empty metadata.
func Load(store ContentStore, id string) (*Metadata, error) {
	if id == "" {
		return &Metadata{}, nil
	}
	data, err := store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", id, err)
	}

	var s serialized
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeserialization, id, err)
	}
	if s.Version != metadataVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %q", ErrDeserialization, id, s.Version)
	}

	load := func(refs []fileRef, valid func(string) bool, withContent bool) ([]FileEntry, error) {
		var out []FileEntry
		seen := make(map[string]bool, len(refs))
		for _, r := range refs {
			if !valid(r.Path) || seen[r.Path] {
				return nil, fmt.Errorf("%w: %s: bad or duplicate path %q", ErrDeserialization, id, r.Path)
			}
			seen[r.Path] = true
			if !withContent {
				out = append(out, FileEntry{Path: r.Path})
				continue
			}
			if r.OID == nil || *r.OID == "" {
				return nil, fmt.Errorf("%w: %s: %s has no content id", ErrDeserialization, id, r.Path)
			}
			body, err := store.Get(*r.OID)
			if err != nil {
				return nil, fmt.Errorf("content of %s: %w", r.Path, err)
			}
			out = append(out, FileEntry{Path: r.Path, ContentRef: *r.OID, Content: content(body)})
		}
		return out, nil
	}

	md := &Metadata{}
	if md.Unknown, err = load(s.Files.Unknown, workingPath, true); err != nil {
		return nil, err
	}
	if md.Deleted, err = load(s.Files.Deleted, workingPath, false); err != nil {
		return nil, err
	}
	if md.LocalState, err = load(s.Files.LocalState, localStateName, true); err != nil {
		return nil, err
	}
	md.sort()
	return md, nil
}

// workingPath accepts slash-separated paths that stay inside the working
// tree and outside the repository directory.
func workingPath(p string) bool {
	if p == "" || strings.Contains(p, `\`) || !filepath.IsLocal(filepath.FromSlash(p)) {
		return false
	}
	first, _, _ := strings.Cut(p, "/")
	return first != config.RepoDir && filepath.ToSlash(filepath.Clean(p)) == p
}

func localStateName(name string) bool {
	return slices.Contains(repo.LocalStateFiles, name)
}

// Refs lists the content ids a metadata blob depends on, the blob itself
// first. It does not read file content.
func Refs(store ContentStore, id string) ([]string, error) {
	if id == "" {
		return nil, nil
	}
	data, err := store.Get(id)
	if err != nil {
		return []string{id}, fmt.Errorf("metadata %s: %w", id, err)
	}
	var s serialized
	if err := json.Unmarshal(data, &s); err != nil {
		return []string{id}, fmt.Errorf("%w: %s: %v", ErrDeserialization, id, err)
	}
	refs := []string{id}
	for _, list := range [][]fileRef{s.Files.Unknown, s.Files.LocalState} {
		for _, r := range list {
			if r.OID != nil && *r.OID != "" {
				refs = append(refs, *r.OID)
			}
		}
	}
	return refs, nil
}
