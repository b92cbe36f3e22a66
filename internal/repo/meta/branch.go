package meta

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/keshon/bvc/internal/util"
)

// Branch represents a branch name.
type Branch struct {
	Name string
}

// GetCurrentBranch returns the branch HEAD is attached to.
func (mc *MetaContext) GetCurrentBranch() (*Branch, error) {
	ref, err := mc.GetHeadRef()
	if err != nil {
		return &Branch{}, fmt.Errorf("failed to get HEAD ref: %w", err)
	}
	if ref.IsDetached() {
		return &Branch{}, fmt.Errorf("HEAD is detached at %s", ref)
	}
	return &Branch{Name: ref.Branch()}, nil
}

// ListBranches returns all branches sorted by name.
func (mc *MetaContext) ListBranches() ([]Branch, error) {
	dirEntries, err := mc.FS.ReadDir(mc.Config.BranchesDir())
	if err != nil {
		return nil, fmt.Errorf("failed to read branches directory %q: %w", mc.Config.BranchesDir(), err)
	}
	branches := make([]Branch, 0, len(dirEntries))
	for _, e := range dirEntries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		branches = append(branches, Branch{Name: e.Name()})
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// CreateBranch creates a new branch pointing at the current HEAD commit.
func (mc *MetaContext) CreateBranch(name string) (Branch, error) {
	if name == "" || name == "HEAD" || strings.ContainsAny(name, `/\ `) || strings.HasPrefix(name, ".") {
		return Branch{}, fmt.Errorf("invalid branch name %q", name)
	}
	lastID, err := mc.HeadCommitID()
	if err != nil {
		return Branch{}, fmt.Errorf("failed to get last commit ID: %w", err)
	}
	exists, err := mc.BranchExists(name)
	if err != nil {
		return Branch{}, err
	}
	if exists {
		return Branch{}, fmt.Errorf("branch %q already exists: %w", name, os.ErrExist)
	}
	if err := mc.SetLastCommitID(name, lastID); err != nil {
		return Branch{}, err
	}
	return Branch{Name: name}, nil
}

// BranchExists checks for branch existence (fast).
func (mc *MetaContext) BranchExists(name string) (bool, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return false, nil
	}
	_, err := mc.FS.Stat(filepath.Join(mc.Config.BranchesDir(), name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat branch file: %w", err)
}

// SetLastCommitID writes the branch last-commit pointer.
func (mc *MetaContext) SetLastCommitID(branch, commitID string) error {
	path := filepath.Join(mc.Config.BranchesDir(), branch)
	if err := util.WriteFileAtomic(mc.FS, path, []byte(commitID)); err != nil {
		return fmt.Errorf("failed to set last commit for branch %q: %w", branch, err)
	}
	return nil
}

// GetLastCommitID returns the last commit ID for branch.
func (mc *MetaContext) GetLastCommitID(branch string) (string, error) {
	path := filepath.Join(mc.Config.BranchesDir(), branch)
	data, err := mc.FS.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read last commit for branch %q: %w", branch, err)
	}
	return strings.TrimSpace(string(data)), nil
}
