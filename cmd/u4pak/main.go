// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

// Command u4pak inspects, verifies, extracts from, and builds Unreal
// Engine 4/5 .pak archives.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const (
	exitOK       = 0
	exitFailed   = 1
	exitUsage    = 2
	exitIOError  = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	logger := log.New(os.Stderr, "", 0)

	if path, ok := argFileCandidate(argv); ok {
		expanded, err := expandArgFile(path)
		if err != nil {
			logger.Printf("u4pak: %v", err)
			return exitUsage
		}
		argv = expanded
	}

	if len(argv) == 0 {
		printUsage(logger)
		return exitUsage
	}

	sub, rest := argv[0], argv[1:]
	switch sub {
	case "check":
		return cmdCheck(logger, rest)
	case "info":
		return cmdInfo(logger, rest)
	case "list":
		return cmdList(logger, rest)
	case "unpack":
		return cmdUnpack(logger, rest)
	case "pack":
		return cmdPack(logger, rest)
	case "mount":
		return cmdMount(logger, rest)
	case "-h", "--help", "help":
		printUsage(logger)
		return exitOK
	default:
		logger.Printf("u4pak: unknown subcommand %q", sub)
		printUsage(logger)
		return exitUsage
	}
}

// expandArgFile reads and tokenizes a `.u4pak` argument file, resolving
// relative paths against the file's own directory, per §6.
func expandArgFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read argument file: %w", err)
	}
	tokens, err := parseArgFile(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return resolveArgFilePaths(filepath.Dir(path), tokens), nil
}

func printUsage(logger *log.Logger) {
	logger.Println("usage: u4pak <check|info|list|unpack|pack|mount> [options] ...")
}
