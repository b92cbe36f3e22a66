package meta

import (
	"fmt"
	"strings"

	"github.com/keshon/bvc/internal/util"
)

const (
	refPrefix    = "ref: "
	branchPrefix = "branches/"
)

// HeadRef is the content of HEAD: either "branches/<name>" or, when
// detached, a raw commit id.
type HeadRef string

func (h HeadRef) String() string { return string(h) }

// IsDetached reports whether HEAD names a commit instead of a branch.
func (h HeadRef) IsDetached() bool { return !strings.HasPrefix(string(h), branchPrefix) }

// Branch returns the branch HEAD is attached to, or "".
func (h HeadRef) Branch() string {
	if h.IsDetached() {
		return ""
	}
	return strings.TrimPrefix(string(h), branchPrefix)
}

// GetHeadRef reads HEAD for this repository.
func (mc *MetaContext) GetHeadRef() (HeadRef, error) {
	data, err := mc.FS.ReadFile(mc.Config.HeadFile())
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD %q: %w", mc.Config.HeadFile(), err)
	}
	content := strings.TrimSpace(string(data))
	if ref, ok := strings.CutPrefix(content, refPrefix); ok {
		return HeadRef(ref), nil
	}
	if content == "" {
		return "", fmt.Errorf("invalid HEAD content: %q", content)
	}
	return HeadRef(content), nil
}

// SetHeadRef attaches HEAD to a branch. Accepts "branches/<name>" or "<name>".
func (mc *MetaContext) SetHeadRef(branch string) (HeadRef, error) {
	refVal := branch
	if !strings.HasPrefix(branch, branchPrefix) {
		refVal = branchPrefix + branch
	}
	if err := util.WriteFileAtomic(mc.FS, mc.Config.HeadFile(), []byte(refPrefix+refVal)); err != nil {
		return "", fmt.Errorf("failed to write HEAD %q: %w", mc.Config.HeadFile(), err)
	}
	return HeadRef(refVal), nil
}

// DetachHead points HEAD directly at a commit.
func (mc *MetaContext) DetachHead(commitID string) error {
	if err := util.WriteFileAtomic(mc.FS, mc.Config.HeadFile(), []byte(commitID)); err != nil {
		return fmt.Errorf("failed to write HEAD %q: %w", mc.Config.HeadFile(), err)
	}
	return nil
}

// HeadCommitID resolves HEAD to a commit id. An unborn branch yields "".
func (mc *MetaContext) HeadCommitID() (string, error) {
	ref, err := mc.GetHeadRef()
	if err != nil {
		return "", err
	}
	if ref.IsDetached() {
		return ref.String(), nil
	}
	return mc.GetLastCommitID(ref.Branch())
}

// AdvanceHead moves whatever HEAD points at to commitID.
func (mc *MetaContext) AdvanceHead(commitID string) error {
	ref, err := mc.GetHeadRef()
	if err != nil {
		return err
	}
	if ref.IsDetached() {
		return mc.DetachHead(commitID)
	}
	return mc.SetLastCommitID(ref.Branch(), commitID)
}

// Parents returns the working copy's first and second parent. The second
// parent is non-empty only while a merge is pending.
func (mc *MetaContext) Parents() (p1, p2 string, err error) {
	p1, err = mc.HeadCommitID()
	if err != nil {
		return "", "", err
	}
	data, err := mc.FS.ReadFile(mc.Config.MergeHeadFile())
	if err != nil {
		if mc.FS.IsNotExist(err) {
			return p1, "", nil
		}
		return "", "", fmt.Errorf("failed to read %s: %w", mc.Config.MergeHeadFile(), err)
	}
	return p1, strings.TrimSpace(string(data)), nil
}

// SetMergeHead records the pending second parent; "" clears it.
func (mc *MetaContext) SetMergeHead(commitID string) error {
	if commitID == "" {
		return util.RemoveIfExists(mc.FS, mc.Config.MergeHeadFile())
	}
	return util.WriteFileAtomic(mc.FS, mc.Config.MergeHeadFile(), []byte(commitID))
}
