// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	pak "github.com/go-pak/u4pak"
)

func cmdUnpack(logger *log.Logger, argv []string) int {
	fs := flag.NewFlagSet("unpack", flag.ContinueOnError)
	ignoreMagic := fs.Bool("ignore-magic", false, "accept a footer whose magic does not match")
	forceVersion := fs.Int("force-version", 0, "decode at exactly this version")
	variant := fs.String("variant", "standard", "standard|conan-exiles")
	output := fs.String("output", ".", "directory to extract files into")
	threads := fs.Int("threads", 0, "worker count (0 = CPU count)")
	verbose := fs.Bool("verbose", false, "print each extracted path")
	paths := fs.String("paths", "", "comma-separated archive paths to extract (default: all)")
	if err := fs.Parse(argv); err != nil {
		return exitUsage
	}

	p, code := openArchive(fs, *ignoreMagic, *forceVersion, *variant)
	if p == nil {
		return code
	}
	defer func() { _ = p.Close() }()

	opts := pak.UnpackOptions{Workers: *threads}
	if *paths != "" {
		opts.Paths = strings.Split(*paths, ",")
	}
	if *verbose {
		opts.OnEntryDone = func(path string, written int64, outputPath string) {
			fmt.Printf("%s -> %s (%d bytes)\n", path, outputPath, written)
		}
	}

	_, err := p.Unpack(context.Background(), *output, opts)
	if err != nil {
		logger.Printf("u4pak: unpack: %v", err)
		return exitIOError
	}
	return exitOK
}
