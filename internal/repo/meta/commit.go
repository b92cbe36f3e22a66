package meta

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/keshon/bvc/internal/util"
)

var (
	ErrCommitNotFound = errors.New("commit not found")
	ErrAmbiguous      = errors.New("ambiguous revision")
)

// minPrefix is the shortest id prefix accepted as a revision.
const minPrefix = 4

// Commit is an immutable history node. Files lists the paths touched
// relative to the first parent. Extra carries free-form annotations.
type Commit struct {
	ID        string            `json:"id"`
	Parents   []string          `json:"parents"`
	Branch    string            `json:"branch"`
	Author    string            `json:"author"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	FilesetID string            `json:"fileset_id"`
	Files     []string          `json:"files,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// P1 returns the first parent or "".
func (c *Commit) P1() string {
	if len(c.Parents) > 0 {
		return c.Parents[0]
	}
	return ""
}

// P2 returns the second parent or "".
func (c *Commit) P2() string {
	if len(c.Parents) > 1 {
		return c.Parents[1]
	}
	return ""
}

// ShortID abbreviates a commit id for display.
func ShortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// hashCommit derives the id from every other field.
func hashCommit(c Commit) (string, error) {
	c.ID = ""
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	h := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(h[:]), nil
}

func (mc *MetaContext) commitPath(id string) string {
	return filepath.Join(mc.Config.CommitsDir(), id+".json")
}

// GetCommit reads a commit by ID.
func (mc *MetaContext) GetCommit(commitID string) (*Commit, error) {
	if commitID == "" || strings.ContainsAny(commitID, `/\.`) {
		return nil, fmt.Errorf("%q: %w", commitID, ErrCommitNotFound)
	}
	var c Commit
	if err := util.ReadJSON(mc.FS, mc.commitPath(commitID), &c); err != nil {
		if mc.FS.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", commitID, ErrCommitNotFound)
		}
		return nil, fmt.Errorf("failed to read commit %q: %w", commitID, err)
	}
	return &c, nil
}

// EncodeCommit assigns the commit its content id and returns the file it
// belongs in and its encoding. Nothing is written.
func (mc *MetaContext) EncodeCommit(commit *Commit) (string, []byte, error) {
	sort.Strings(commit.Files)
	id, err := hashCommit(*commit)
	if err != nil {
		return "", nil, fmt.Errorf("hash commit: %w", err)
	}
	commit.ID = id
	data, err := json.MarshalIndent(commit, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode commit %q: %w", id, err)
	}
	return mc.commitPath(id), data, nil
}

// CreateCommit assigns the commit its content id and writes it to store.
func (mc *MetaContext) CreateCommit(commit *Commit) (string, error) {
	path, data, err := mc.EncodeCommit(commit)
	if err != nil {
		return "", err
	}
	if err := util.WriteFileAtomic(mc.FS, path, data); err != nil {
		return "", fmt.Errorf("failed to write commit %q: %w", commit.ID, err)
	}
	return commit.ID, nil
}

// ListCommitIDs returns every stored commit id, sorted.
func (mc *MetaContext) ListCommitIDs() ([]string, error) {
	entries, err := mc.FS.ReadDir(mc.Config.CommitsDir())
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if id, ok := strings.CutSuffix(e.Name(), ".json"); ok && !strings.HasPrefix(id, ".") {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ResolveCommit maps a revision (full id, unique prefix, branch name or
// "HEAD") to a commit id.
func (mc *MetaContext) ResolveCommit(rev string) (string, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", fmt.Errorf("empty revision: %w", ErrCommitNotFound)
	}
	if rev == "HEAD" {
		id, err := mc.HeadCommitID()
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", fmt.Errorf("HEAD has no commits: %w", ErrCommitNotFound)
		}
		return id, nil
	}
	if _, err := mc.GetCommit(rev); err == nil {
		return rev, nil
	} else if !errors.Is(err, ErrCommitNotFound) {
		return "", err
	}
	if ok, _ := mc.BranchExists(rev); ok {
		id, err := mc.GetLastCommitID(rev)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	if len(rev) >= minPrefix {
		ids, err := mc.ListCommitIDs()
		if err != nil {
			return "", err
		}
		var match []string
		for _, id := range ids {
			if strings.HasPrefix(id, rev) {
				match = append(match, id)
			}
		}
		switch len(match) {
		case 1:
			return match[0], nil
		case 0:
		default:
			return "", fmt.Errorf("%q matches %d commits: %w", rev, len(match), ErrAmbiguous)
		}
	}
	return "", fmt.Errorf("unknown revision %q: %w", rev, ErrCommitNotFound)
}

// Ancestors walks first parents from commitID (latest -> oldest).
func (mc *MetaContext) Ancestors(commitID string) ([]*Commit, error) {
	var out []*Commit
	seen := map[string]bool{}
	for id := commitID; id != "" && !seen[id]; {
		seen[id] = true
		c, err := mc.GetCommit(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		id = c.P1()
	}
	return out, nil
}
