// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pakfs

import (
	"fmt"

	"bazil.org/fuse"
	bazilfs "bazil.org/fuse/fs"

	"github.com/go-pak/u4pak"
)

// MountAndServe mounts p at mountpoint and blocks serving FUSE requests
// until the filesystem is unmounted or serving fails. Grounded on
// bazil.org/fuse's standard Mount+fs.Serve pairing.
func MountAndServe(mountpoint string, p *pak.Pak, allowOther bool, debug bool) error {
	options := []fuse.MountOption{
		fuse.FSName("u4pak"),
		fuse.Subtype("pak"),
		fuse.ReadOnly(),
	}
	if allowOther {
		options = append(options, fuse.AllowOther())
	}

	c, err := fuse.Mount(mountpoint, options...)
	if err != nil {
		return fmt.Errorf("mount %s: %w", mountpoint, err)
	}
	defer func() { _ = c.Close() }()

	if debug {
		fuse.Debug = func(msg interface{}) { fmt.Printf("pakfs: %v\n", msg) } //nolint:forbidigo // debug trace only, opt-in
	}

	srv := New(p)
	if err := bazilfs.Serve(c, srv); err != nil {
		return fmt.Errorf("serve %s: %w", mountpoint, err)
	}

	return nil
}
