// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ParseSource parses one pack source specification per §4.7: an optional
// leading `:param,param,...:` block (only `zlib` and `rename=PREFIX`
// recognized, case-sensitively) followed by the host filesystem path, e.g.
// `:zlib,rename=data/cfg.ini:/host/config.ini`. A bare path with no leading
// colon is returned unmodified, uncompressed. Ported from
// original_source/src/pack.rs's PackPath parser, trimmed to the two options
// §4.7 names.
func ParseSource(spec string) (Source, error) {
	if !strings.HasPrefix(spec, ":") {
		return Source{HostPath: spec}, nil
	}

	rest := spec[1:]
	end := strings.Index(rest, ":")
	if end < 0 {
		return Source{}, &InvalidSource{Spec: spec, Reason: "expected a second ':'"}
	}

	paramStr, hostPath := rest[:end], rest[end+1:]
	src := Source{HostPath: hostPath}

	if paramStr != "" {
		for _, param := range strings.Split(paramStr, ",") {
			switch {
			case param == "zlib":
				src.Zlib = true
			case strings.HasPrefix(param, "rename="):
				src.ArchivePath = strings.TrimPrefix(param, "rename=")
			default:
				return Source{}, &InvalidSource{Spec: spec, Reason: fmt.Sprintf("unhandled option %q", param)}
			}
		}
	}

	return src, nil
}

// resolvedSource is one walked file ready for the pack engine: its final
// archive path, host path, and per-file compression choice.
type resolvedSource struct {
	ArchivePath string
	HostPath    string
	Zlib        bool
}

// walkSources expands each Source into the ordered (archive_path, host_path)
// tuples §4.7 step 1 describes, walking directories and normalizing
// archive paths to forward slashes. A file source keeps its ArchivePath (or
// its normalized base path); a directory source prefixes every descendant
// with ArchivePath (or its normalized base name).
func walkSources(sources []Source) ([]resolvedSource, error) {
	var out []resolvedSource
	seen := make(map[string]struct{})

	for _, src := range sources {
		info, err := os.Stat(src.HostPath)
		if err != nil {
			return nil, fmt.Errorf("stat source %q: %w", src.HostPath, err)
		}

		if !info.IsDir() {
			archivePath := src.ArchivePath
			if archivePath == "" {
				archivePath = normalizeSourcePath(filepath.Base(src.HostPath))
			}
			if _, dup := seen[archivePath]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateEntryPath, archivePath)
			}
			seen[archivePath] = struct{}{}
			out = append(out, resolvedSource{ArchivePath: archivePath, HostPath: src.HostPath, Zlib: src.Zlib})
			continue
		}

		prefix := src.ArchivePath
		if prefix == "" {
			prefix = normalizeSourcePath(filepath.Base(src.HostPath))
		}

		err = filepath.Walk(src.HostPath, func(hostPath string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if fi.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(src.HostPath, hostPath)
			if err != nil {
				return fmt.Errorf("resolve relative path for %q: %w", hostPath, err)
			}
			archivePath := prefix + "/" + normalizeSourcePath(rel)
			if _, dup := seen[archivePath]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateEntryPath, archivePath)
			}
			seen[archivePath] = struct{}{}
			out = append(out, resolvedSource{ArchivePath: archivePath, HostPath: hostPath, Zlib: src.Zlib})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}
