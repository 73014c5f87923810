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

func openArchive(fs *flag.FlagSet, ignoreMagic bool, forceVersion int, variant string) (*pak.Pak, int) {
	if fs.NArg() < 1 {
		fmt.Fprintln(fs.Output(), "missing PAK argument")
		return nil, exitUsage
	}
	opts := pak.OpenOptions{
		IgnoreMagic:  ignoreMagic,
		ForceVersion: forceVersion,
	}
	switch variant {
	case "", "standard":
		opts.Variant = pak.VariantStandard
	case "conan-exiles":
		opts.Variant = pak.VariantConanExiles
	default:
		fmt.Fprintf(fs.Output(), "unknown --variant %q\n", variant)
		return nil, exitUsage
	}

	p, err := pak.OpenWithOptions(fs.Arg(0), opts)
	if err != nil {
		fmt.Fprintf(fs.Output(), "u4pak: %v\n", err)
		return nil, exitIOError
	}
	return p, exitOK
}

func cmdCheck(logger *log.Logger, argv []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	ignoreMagic := fs.Bool("ignore-magic", false, "accept a footer whose magic does not match")
	forceVersion := fs.Int("force-version", 0, "decode at exactly this version")
	variant := fs.String("variant", "standard", "standard|conan-exiles")
	verbose := fs.Bool("verbose", false, "print every record, not only failures")
	threads := fs.Int("threads", 0, "worker count (0 = CPU count)")
	print0 := fs.Bool("print0", false, "NUL-separate printed paths")
	if err := fs.Parse(argv); err != nil {
		return exitUsage
	}

	p, code := openArchive(fs, *ignoreMagic, *forceVersion, *variant)
	if p == nil {
		return code
	}
	defer func() { _ = p.Close() }()

	report, err := p.Check(context.Background(), pak.CheckOptions{
		Workers:             *threads,
		NullSeparatedOutput: *print0,
	})
	if err != nil {
		logger.Printf("u4pak: check: %v", err)
		return exitIOError
	}

	sep := "\n"
	if *print0 {
		sep = "\x00"
	}

	var out strings.Builder
	for _, r := range report.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(&out, "FAILED %s: %v%s", r.Path, r.Err, sep)
		case *verbose:
			fmt.Fprintf(&out, "OK %s%s", r.Path, sep)
		}
	}
	fmt.Print(out.String())

	if report.Failed > 0 {
		logger.Printf("u4pak: %d of %d records failed", report.Failed, len(report.Results))
		return exitFailed
	}
	return exitOK
}
