// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"fmt"
	"path/filepath"
	"strings"
)

// cleanArchivePath normalizes a record filename to forward-slash form,
// stripping a leading "/" the way §4.3's FDI-flatten step does for the
// directory component. It does not reject "..": that check is
// safeRelativePath's job, applied only at unpack time.
func cleanArchivePath(raw string) string {
	raw = strings.ReplaceAll(raw, `\`, "/")
	return strings.TrimPrefix(raw, "/")
}

// safeRelativePath validates an archive path for extraction under root and
// returns the host filesystem path to write to, per §4.6: "filename
// normalization strips leading '/' and rejects '..' components".
func safeRelativePath(root, archivePath string) (string, error) {
	clean := cleanArchivePath(archivePath)
	if clean == "" {
		return "", fmt.Errorf("%w: empty archive path", ErrUnsafePath)
	}

	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q contains \"..\"", ErrUnsafePath, archivePath)
		}
	}

	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

// normalizeSourcePath converts a host path's separators to "/" and strips a
// leading "/" for use as a default archive path, per §4.7 step 1.
func normalizeSourcePath(hostRelPath string) string {
	return cleanArchivePath(filepath.ToSlash(hostRelPath))
}
