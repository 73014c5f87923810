// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
)

func cmdList(_ *log.Logger, argv []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	ignoreMagic := fs.Bool("ignore-magic", false, "accept a footer whose magic does not match")
	forceVersion := fs.Int("force-version", 0, "decode at exactly this version")
	variant := fs.String("variant", "standard", "standard|conan-exiles")
	humanReadable := fs.Bool("human-readable", false, "print sizes as e.g. 1.2MiB")
	sortBy := fs.String("sort", "name", "offset|size|name")
	print0 := fs.Bool("print0", false, "NUL-separate printed entries")
	if err := fs.Parse(argv); err != nil {
		return exitUsage
	}

	p, code := openArchive(fs, *ignoreMagic, *forceVersion, *variant)
	if p == nil {
		return code
	}
	defer func() { _ = p.Close() }()

	records := p.Records()
	switch *sortBy {
	case "offset":
		sort.Slice(records, func(i, j int) bool { return records[i].Offset < records[j].Offset })
	case "size":
		sort.Slice(records, func(i, j int) bool { return records[i].Size < records[j].Size })
	case "name":
		sort.Slice(records, func(i, j int) bool { return records[i].Filename < records[j].Filename })
	default:
		fmt.Fprintf(fs.Output(), "unknown --sort %q\n", *sortBy)
		return exitUsage
	}

	sep := "\n"
	if *print0 {
		sep = "\x00"
	}
	for _, r := range records {
		size := fmt.Sprintf("%d", r.Size)
		uncompressed := fmt.Sprintf("%d", r.UncompressedSize)
		if *humanReadable {
			size = humanSize(r.Size)
			uncompressed = humanSize(r.UncompressedSize)
		}
		method := r.CompressionMethod.String()
		if r.CompressionIndexed && r.CompressionName != "" {
			method = r.CompressionName
		}
		fmt.Printf("%s %s %s %s%s", r.Filename, size, uncompressed, method, sep)
	}

	return exitOK
}

func humanSize(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
