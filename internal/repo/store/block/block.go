package block

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/util"
)

// ErrNotFound is returned when a hash is unknown to the store.
var ErrNotFound = errors.New("content not found")

// BlockRef describes one physical block of content.
type BlockRef struct {
	Hash   string `json:"hash"`
	Size   int64  `json:"size"`
	Offset int64  `json:"offset"`
}

// BlockStatus indicates the state of a block on disk.
type BlockStatus int

const (
	OK BlockStatus = iota
	Missing
	Damaged
)

func (s BlockStatus) String() string {
	switch s {
	case OK:
		return "ok"
	case Missing:
		return "missing"
	default:
		return "damaged"
	}
}

// BlockCheck contains information about a single block.
type BlockCheck struct {
	Hash   string
	Status BlockStatus
}

// BlockContext is the content-addressed blob store (.bvc/blocks). Blobs are
// immutable and keyed by the xxh3-128 hash of their bytes.
type BlockContext struct {
	BlocksDir string
	FS        fs.FS
}

// NewBlockContext creates a new BlockContext.
func NewBlockContext(root string, fs fs.FS) *BlockContext {
	return &BlockContext{BlocksDir: root, FS: fs}
}

// HashBytes returns the content id of data.
func HashBytes(data []byte) string {
	h := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(h[:])
}

func (bc *BlockContext) path(hash string) string {
	return filepath.Join(bc.BlocksDir, hash+".bin")
}

// Put stores data and returns its content id. Storing identical bytes twice
// writes a single blob.
func (bc *BlockContext) Put(data []byte) (string, error) {
	hash := HashBytes(data)
	if err := bc.writeBlob(hash, data); err != nil {
		return "", err
	}
	return hash, nil
}

// Get returns the blob stored under hash.
func (bc *BlockContext) Get(hash string) ([]byte, error) {
	if !validHash(hash) {
		return nil, fmt.Errorf("read block %q: %w", hash, ErrNotFound)
	}
	data, err := bc.FS.ReadFile(bc.path(hash))
	if err != nil {
		if bc.FS.IsNotExist(err) {
			return nil, fmt.Errorf("read block %q: %w", hash, ErrNotFound)
		}
		return nil, fmt.Errorf("read block %q: %w", hash, err)
	}
	return data, nil
}

// Has reports whether hash is stored.
func (bc *BlockContext) Has(hash string) bool {
	return validHash(hash) && bc.FS.Exists(bc.path(hash))
}

// Read retrieves a block by its hash.
func (bc *BlockContext) Read(hash string) ([]byte, error) {
	return bc.Get(hash)
}

// Write stores all blocks of the file at filePath.
func (bc *BlockContext) Write(filePath string, blocks []BlockRef) error {
	if len(blocks) == 0 {
		return nil
	}
	data, err := bc.FS.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read source file %q: %w", filePath, err)
	}
	return util.Parallel(blocks, util.WorkerCount(), func(b BlockRef) error {
		end := b.Offset + b.Size
		if b.Offset < 0 || end > int64(len(data)) {
			return fmt.Errorf("block %s out of range for %q (file changed while storing?)", b.Hash, filePath)
		}
		chunk := data[b.Offset:end]
		if HashBytes(chunk) != b.Hash {
			return fmt.Errorf("block %s of %q changed while storing", b.Hash, filePath)
		}
		return bc.writeBlob(b.Hash, chunk)
	})
}

// writeBlob writes a blob atomically; an existing blob of the same size is kept.
func (bc *BlockContext) writeBlob(hash string, data []byte) error {
	dst := bc.path(hash)
	if fi, err := bc.FS.Stat(dst); err == nil && fi.Size() == int64(len(data)) {
		return nil
	}
	if err := bc.FS.MkdirAll(bc.BlocksDir, 0o755); err != nil {
		return fmt.Errorf("create blocks dir: %w", err)
	}

	tmp, tmpPath, err := bc.FS.CreateTempFile(bc.BlocksDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", bc.BlocksDir, err)
	}
	defer bc.FS.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp block: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp block: %w", err)
	}
	if err := bc.FS.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename temp %q to %q: %w", tmpPath, dst, err)
	}
	return nil
}

// CleanupTemp removes orphaned temp files left by interrupted writes.
func (bc *BlockContext) CleanupTemp() error {
	entries, err := bc.FS.ReadDir(bc.BlocksDir)
	if err != nil {
		if bc.FS.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".tmp-") {
			_ = bc.FS.Remove(filepath.Join(bc.BlocksDir, e.Name()))
		}
	}
	return nil
}

// Verify checks a set of block hashes concurrently and streams results.
func (bc *BlockContext) Verify(hashes []string, workers int) <-chan BlockCheck {
	out := make(chan BlockCheck, 128)
	if workers <= 0 {
		workers = util.WorkerCount()
	}

	go func() {
		defer close(out)
		_ = util.Parallel(hashes, workers, func(h string) error {
			status, _ := bc.VerifyBlock(h)
			out <- BlockCheck{Hash: h, Status: status}
			return nil
		})
	}()

	return out
}

// VerifyBlock rehashes a stored blob and compares it with its name.
func (bc *BlockContext) VerifyBlock(hash string) (BlockStatus, error) {
	data, err := bc.Get(hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Missing, nil
		}
		return Damaged, err
	}
	if HashBytes(data) == hash {
		return OK, nil
	}
	return Damaged, nil
}

// ReadAll concatenates the blocks of a chunked file.
func (bc *BlockContext) ReadAll(w io.Writer, blocks []BlockRef) error {
	for _, b := range blocks {
		data, err := bc.Get(b.Hash)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

func validHash(h string) bool {
	if len(h) != 32 {
		return false
	}
	_, err := hex.DecodeString(h)
	return err == nil
}
