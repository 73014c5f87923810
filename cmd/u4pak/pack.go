// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	pak "github.com/go-pak/u4pak"
)

func cmdPack(logger *log.Logger, argv []string) int {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	version := fs.Int("version", 3, "pak version to emit (1-3)")
	mountPoint := fs.String("mount-point", "", "mount point string stored in the index")
	blockSize := fs.Uint("compression-block-size", pak.DefaultCompressionBlockSize, "zlib block size in bytes")
	threads := fs.Int("threads", 0, "worker count (0 = CPU count)")
	if err := fs.Parse(argv); err != nil {
		return exitUsage
	}

	if fs.NArg() < 2 {
		fmt.Fprintln(fs.Output(), "usage: u4pak pack --version=V PAK SOURCE...")
		return exitUsage
	}

	outPath := fs.Arg(0)
	sources := make([]pak.Source, 0, fs.NArg()-1)
	for _, spec := range fs.Args()[1:] {
		src, err := pak.ParseSource(spec)
		if err != nil {
			logger.Printf("u4pak: pack: %v", err)
			return exitUsage
		}
		sources = append(sources, src)
	}

	report, err := pak.PackFile(context.Background(), outPath, sources, pak.PackOptions{
		Version:              *version,
		MountPoint:           *mountPoint,
		CompressionBlockSize: uint32(*blockSize), //nolint:gosec // CLI-provided block sizes are small
		Workers:              *threads,
	})
	if err != nil {
		logger.Printf("u4pak: pack: %v", err)
		return exitIOError
	}

	fmt.Printf("wrote %d records, %d bytes of data, %d byte index\n", report.WrittenRecords, report.DataSize, report.IndexSize)
	return exitOK
}
