// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

// Package pakfs exposes an opened pak archive as a read-only FUSE
// filesystem, translating lookup/readdir/read requests into positioned
// reads against the archive's record list, per §4.8.
package pakfs

import (
	"strings"
	"sync"
	"time"

	"bazil.org/fuse/fs"

	"github.com/go-pak/u4pak"
)

const (
	fileBasePerm = 0o444
	dirBasePerm  = 0o555
)

var (
	_ fs.FS               = (*FS)(nil)
	_ fs.FSInodeGenerator = (*FS)(nil)
)

// FS is the root of one mounted pak archive.
type FS struct {
	pak      *pak.Pak
	opened   time.Time
	mu       sync.RWMutex // guards root; held for writing only during build/teardown, per §5
	root     *dirNode
	nextInode uint64
}

// New builds the in-memory directory tree for p once and returns the
// mountable filesystem root.
func New(p *pak.Pak) *FS {
	f := &FS{pak: p, opened: time.Now(), nextInode: 1}
	f.build()
	return f
}

// Root returns the topmost node of the filesystem.
func (f *FS) Root() (fs.Node, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.root, nil
}

// GenerateInode panics: every node's inode is assigned during build, so a
// fallback dynamic allocation means a record was reachable without going
// through the tree build and needs fixing.
func (f *FS) GenerateInode(_ uint64, _ string) uint64 {
	panic("pakfs: unhandled zero inode triggered an illegal dynamic generation")
}

// build walks p.Records() once and materializes the dir/file tree, per
// §4.8 "build a directory tree in memory". Called only from New, under the
// write side of mu.
func (f *FS) build() {
	f.mu.Lock()
	defer f.mu.Unlock()

	root := newDirNode(f.allocInode(), f.opened)
nextRecord:
	for _, rec := range f.pak.Records() {
		segments := strings.Split(strings.TrimPrefix(rec.Filename, "/"), "/")
		dir := root
		for _, seg := range segments[:len(segments)-1] {
			child, ok := dir.children[seg]
			if !ok {
				child = newDirNode(f.allocInode(), f.opened)
				dir.children[seg] = child
			}
			sub, ok := child.(*dirNode)
			if !ok {
				// A file already claims this path segment as a leaf; the
				// archive is malformed, so the conflicting entry is dropped.
				continue nextRecord
			}
			dir = sub
		}
		base := segments[len(segments)-1]
		dir.children[base] = &fileNode{
			inode:   f.allocInode(),
			record:  rec,
			pak:     f.pak,
			modTime: recordModTime(rec, f.opened),
		}
	}

	f.root = root
}

func (f *FS) allocInode() uint64 {
	inode := f.nextInode
	f.nextInode++
	return inode
}

func recordModTime(rec *pak.Record, fallback time.Time) time.Time {
	if rec.HasTimestamp {
		return time.Unix(int64(rec.Timestamp), 0).UTC() //nolint:gosec // record timestamps are small positive values
	}
	return time.Unix(0, 0).UTC()
}
