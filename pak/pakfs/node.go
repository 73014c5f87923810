// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pakfs

import (
	"context"
	"os"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/go-pak/u4pak"
)

var (
	_ fs.Node                = (*dirNode)(nil)
	_ fs.NodeStringLookuper  = (*dirNode)(nil)
	_ fs.HandleReadDirAller  = (*dirNode)(nil)
	_ fs.Node                = (*fileNode)(nil)
	_ fs.NodeOpener          = (*fileNode)(nil)
)

// dirNode is an in-memory directory built once at mount, per §4.8.
type dirNode struct {
	inode    uint64
	modTime  time.Time
	children map[string]fs.Node
}

func newDirNode(inode uint64, modTime time.Time) *dirNode {
	return &dirNode{inode: inode, modTime: modTime, children: make(map[string]fs.Node)}
}

func (d *dirNode) Attr(_ context.Context, a *fuse.Attr) error {
	a.Inode = d.inode
	a.Mode = os.ModeDir | dirBasePerm
	a.Mtime = d.modTime
	a.Size = 0
	return nil
}

func (d *dirNode) Lookup(_ context.Context, name string) (fs.Node, error) {
	if child, ok := d.children[name]; ok {
		return child, nil
	}
	return nil, fuse.ENOENT
}

func (d *dirNode) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	out := make([]fuse.Dirent, 0, len(d.children))
	for name, child := range d.children {
		typ := fuse.DT_File
		if _, ok := child.(*dirNode); ok {
			typ = fuse.DT_Dir
		}
		inode := uint64(0)
		switch n := child.(type) {
		case *dirNode:
			inode = n.inode
		case *fileNode:
			inode = n.inode
		}
		out = append(out, fuse.Dirent{Inode: inode, Name: name, Type: typ})
	}
	return out, nil
}

// fileNode is a leaf backed by one pak record.
type fileNode struct {
	inode   uint64
	record  *pak.Record
	pak     *pak.Pak
	modTime time.Time
}

func (n *fileNode) Attr(_ context.Context, a *fuse.Attr) error {
	a.Inode = n.inode
	a.Mode = fileBasePerm
	a.Size = n.record.UncompressedSize
	a.Mtime = n.modTime
	return nil
}

// Open hands out a per-handle block cache; the underlying pak payload
// access is shared (positioned reads), but the inflate cache is not, per
// §4.8 "Caching is per open file handle, not global".
func (n *fileNode) Open(_ context.Context, _ *fuse.OpenRequest, _ *fuse.OpenResponse) (fs.Handle, error) {
	return newFileHandle(n.pak, n.record), nil
}
