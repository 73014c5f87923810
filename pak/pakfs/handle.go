// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pakfs

import (
	"context"
	"sync"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/go-pak/u4pak"
)

// blockCacheSize bounds the per-handle LRU to a few MiB worth of inflated
// blocks, per §4.8 "a small per-open cache (LRU, bounded by a few MiB)".
const blockCacheSize = 32

var (
	_ fs.Handle        = (*fileHandle)(nil)
	_ fs.HandleReader  = (*fileHandle)(nil)
	_ fs.HandleReleaser = (*fileHandle)(nil)
)

// fileHandle answers reads for one open file by translating a byte offset
// into its containing compression block, decompressing through a per-handle
// LRU cache so repeated reads of the same block are free.
type fileHandle struct {
	pak    *pak.Pak
	record *pak.Record

	mu    sync.Mutex
	cache *lru.Cache[int, []byte]
}

func newFileHandle(p *pak.Pak, rec *pak.Record) *fileHandle {
	cache, _ := lru.New[int, []byte](blockCacheSize)
	return &fileHandle{pak: p, record: rec, cache: cache}
}

// Read implements fs.HandleReader by resolving req.Offset to its
// containing block, decompressing it (through the cache) and copying out
// the requested slice. A read may span more than one block.
func (h *fileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	want := int64(req.Size)
	offset := req.Offset
	out := make([]byte, 0, want)

	for want > 0 {
		if uint64(offset) >= h.record.UncompressedSize { //nolint:gosec // offsets are non-negative
			break
		}

		blockIdx, blockData, err := h.blockFor(uint64(offset)) //nolint:gosec // offsets are non-negative
		if err != nil {
			return err
		}

		start, _ := h.pak.BlockUncompressedRange(h.record, blockIdx)
		within := uint64(offset) - start //nolint:gosec // offsets are non-negative
		if within >= uint64(len(blockData)) {
			break
		}

		n := int64(len(blockData)) - int64(within) //nolint:gosec // block lengths fit int64
		if n > want {
			n = want
		}

		out = append(out, blockData[within:uint64(within)+uint64(n)]...) //nolint:gosec
		offset += n
		want -= n
	}

	resp.Data = out
	return nil
}

// blockFor returns the block index containing offset and its decompressed
// bytes, populating h.cache on a miss. Callers hold h.mu.
func (h *fileHandle) blockFor(offset uint64) (int, []byte, error) {
	count := h.pak.BlockCount(h.record)
	for i := 0; i < count; i++ {
		start, end := h.pak.BlockUncompressedRange(h.record, i)
		if offset < start || offset >= end {
			continue
		}
		if data, ok := h.cache.Get(i); ok {
			return i, data, nil
		}
		data, err := h.pak.ReadBlock(h.record, i)
		if err != nil {
			return 0, nil, err
		}
		h.cache.Add(i, data)
		return i, data, nil
	}
	return 0, nil, fuse.Errno(syscall.ENXIO)
}

// Release drops the per-handle cache, per §4.8 "release drops the
// per-handle cache".
func (h *fileHandle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cache.Purge()
	return nil
}
