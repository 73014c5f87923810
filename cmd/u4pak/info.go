// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package main

import (
	"flag"
	"fmt"
	"log"
)

func cmdInfo(logger *log.Logger, argv []string) int {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	ignoreMagic := fs.Bool("ignore-magic", false, "accept a footer whose magic does not match")
	forceVersion := fs.Int("force-version", 0, "decode at exactly this version")
	variant := fs.String("variant", "standard", "standard|conan-exiles")
	if err := fs.Parse(argv); err != nil {
		return exitUsage
	}

	p, code := openArchive(fs, *ignoreMagic, *forceVersion, *variant)
	if p == nil {
		return code
	}
	defer func() { _ = p.Close() }()

	records := p.Records()
	var totalSize, totalUncompressed uint64
	for _, r := range records {
		totalSize += r.Size
		totalUncompressed += r.UncompressedSize
	}

	fmt.Printf("version:      %d\n", p.Version())
	fmt.Printf("variant:      %s\n", p.Variant())
	fmt.Printf("mount point:  %s\n", p.MountPoint())
	fmt.Printf("records:      %d\n", len(records))
	fmt.Printf("total size:   %d\n", totalSize)
	fmt.Printf("uncompressed: %d\n", totalUncompressed)
	fmt.Printf("encrypted:    %t\n", p.IndexEncrypted())
	fmt.Printf("frozen index: %t\n", p.FrozenIndex())
	if p.Version() >= 7 {
		fmt.Printf("key guid:     %s\n", p.EncryptionKeyGUID())
	}
	if methods := p.CompressionMethods(); len(methods) > 0 {
		fmt.Printf("compression methods: %v\n", methods)
	}

	return exitOK
}
