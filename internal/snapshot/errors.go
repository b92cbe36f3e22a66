// Package snapshot captures the whole mutable state of a working copy
// (tracked edits, untracked and missing files, interrupted-operation state)
// as an annotated commit, and restores it later.
package snapshot

import (
	"errors"

	"github.com/keshon/bvc/internal/repo/store/block"
)

var (
	// ErrNotFound covers missing commits, content and metadata blobs.
	// errors.Is also matches block.ErrNotFound through it.
	ErrNotFound = block.ErrNotFound
	// ErrInvalidSnapshot is returned for commits without snapshot metadata.
	ErrInvalidSnapshot = errors.New("not a valid snapshot")
	// ErrPreconditionFailed is returned when checkout needs a clean working copy.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrDeserialization is returned for corrupt metadata blobs.
	ErrDeserialization = errors.New("malformed snapshot metadata")
	// ErrIOFailure marks per-file restore failures, reported as warnings.
	ErrIOFailure = errors.New("i/o failure")
)

// MetadataKey is the commit annotation that makes a commit a snapshot.
const MetadataKey = "snapshotmetadataid"
