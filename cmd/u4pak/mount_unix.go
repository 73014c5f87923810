// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

//go:build linux || darwin

package main

import (
	"flag"
	"log"

	pak "github.com/go-pak/u4pak"
	"github.com/go-pak/u4pak/pak/pakfs"
)

func cmdMount(logger *log.Logger, argv []string) int {
	fs := flag.NewFlagSet("mount", flag.ContinueOnError)
	foreground := fs.Bool("foreground", false, "do not detach (no-op: this build always runs in the foreground)")
	debug := fs.Bool("debug", false, "log every FUSE request")
	allowOther := fs.Bool("allow-other", false, "allow other users to access the mount")
	if err := fs.Parse(argv); err != nil {
		return exitUsage
	}
	_ = foreground

	if fs.NArg() < 2 {
		logger.Println("usage: u4pak mount [--foreground] [--debug] [--allow-other] PAK MOUNTPOINT")
		return exitUsage
	}

	p, err := pak.Open(fs.Arg(0))
	if err != nil {
		logger.Printf("u4pak: mount: %v", err)
		return exitIOError
	}
	defer func() { _ = p.Close() }()

	if err := pakfs.MountAndServe(fs.Arg(1), p, *allowOther, *debug); err != nil {
		logger.Printf("u4pak: mount: %v", err)
		return exitIOError
	}
	return exitOK
}
