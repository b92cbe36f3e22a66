package block

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"
	"golang.org/x/exp/mmap"

	"github.com/keshon/bvc/internal/fs"
)

const (
	minChunkSize = 2 * 1024 * 1024 // 2 MiB
	maxChunkSize = 8 * 1024 * 1024 // 8 MiB
	rollMod      = 4096
	readBufSize  = 32 * 1024 // 32 KiB streaming read buffer
)

// gearTable holds 256 pseudo-random values for the Gear rolling hash,
// derived from xxh3 so they are stable across builds.
var gearTable = func() (t [256]uint32) {
	var seed [8]byte
	for i := range t {
		binary.LittleEndian.PutUint64(seed[:], uint64(i))
		t[i] = uint32(xxh3.Hash(seed[:]))
	}
	return t
}()

// SplitFile divides a file into content-defined blocks deterministically
// using a Gear-like rolling hash. Empty files have no blocks.
func (bc *BlockContext) SplitFile(path string) ([]BlockRef, error) {
	fi, err := bc.FS.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file %q: %w", path, err)
	}
	if fi.Size() == 0 {
		return nil, nil
	}

	var src io.Reader
	if _, ok := bc.FS.(*fs.OSFS); ok {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, fmt.Errorf("mmap file %q: %w", path, err)
		}
		defer m.Close()
		src = io.NewSectionReader(m, 0, int64(m.Len()))
	} else {
		f, err := bc.FS.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file %q: %w", path, err)
		}
		defer f.Close()
		src = f
	}

	blocks, err := splitStream(src)
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", path, err)
	}
	return blocks, nil
}

// SplitBytes is SplitFile for in-memory content.
func SplitBytes(data []byte) []BlockRef {
	if len(data) == 0 {
		return nil
	}
	blocks, _ := splitStream(bytes.NewReader(data))
	return blocks
}

func splitStream(r io.Reader) ([]BlockRef, error) {
	var (
		allBlocks []BlockRef
		offset    int64
		rh        uint32
	)
	readBuf := make([]byte, readBufSize)
	blockBuf := make([]byte, 0, 64*1024)

	flush := func() {
		br := BlockRef{Hash: HashBytes(blockBuf), Size: int64(len(blockBuf)), Offset: offset}
		allBlocks = append(allBlocks, br)
		offset += br.Size
		blockBuf = blockBuf[:0]
		rh = 0
	}

	for {
		n, rerr := r.Read(readBuf)
		for _, b := range readBuf[:n] {
			blockBuf = append(blockBuf, b)
			rh = (rh << 1) + gearTable[b]
			if shouldSplitBlock(len(blockBuf), rh) {
				flush()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, rerr
		}
	}

	if len(blockBuf) > 0 {
		flush()
	}
	return allBlocks, nil
}

func shouldSplitBlock(size int, rh uint32) bool {
	return (size >= minChunkSize && rh%rollMod == 0) || size >= maxChunkSize
}
