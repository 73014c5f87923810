// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

//go:build !linux && !darwin

package main

import (
	"log"

	pak "github.com/go-pak/u4pak"
)

func cmdMount(logger *log.Logger, _ []string) int {
	logger.Printf("u4pak: mount: %v: fuse mount is only available on linux and darwin", pak.ErrUnsupportedFeature)
	return exitFailed
}
