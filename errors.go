// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"errors"
	"fmt"
)

// Sentinel errors for pak operations. Use errors.Is in callers.
var (
	// ErrInvalidMagic means the footer magic number did not match at the probed offset.
	ErrInvalidMagic = errors.New("pak: invalid or missing footer magic")
	// ErrUnsupportedVersion means the pak version is outside the supported range, or
	// unsupported for the requested operation (e.g. write support above v3).
	ErrUnsupportedVersion = errors.New("pak: unsupported version")
	// ErrUnsupportedFeature means a recognized but unimplemented on-disk feature was found.
	ErrUnsupportedFeature = errors.New("pak: unsupported feature")
	// ErrInvalidRecord means a record failed structural validation.
	ErrInvalidRecord = errors.New("pak: invalid record")
	// ErrDecompressError means zlib inflate of a compression block failed.
	ErrDecompressError = errors.New("pak: decompress error")
	// ErrUnsafePath means an archive path escapes the extraction root or is otherwise unsafe.
	ErrUnsafePath = errors.New("pak: unsafe path")
	// ErrInvalidSource means a pack source specification could not be parsed.
	ErrInvalidSource = errors.New("pak: invalid source")
	// ErrUsage means the caller supplied invalid arguments to an entry point.
	ErrUsage = errors.New("pak: usage error")
	// ErrNilReader means a required io.ReaderAt/io.Reader argument was nil.
	ErrNilReader = errors.New("pak: reader is nil")
	// ErrNilWriter means a required io.Writer/io.WriteSeeker argument was nil.
	ErrNilWriter = errors.New("pak: writer is nil")
	// ErrClosed means the Pak was already closed.
	ErrClosed = errors.New("pak: already closed")
	// ErrEmptySources means Pack was called with no input sources.
	ErrEmptySources = errors.New("pak: no sources provided")
	// ErrDuplicateEntryPath means two sources resolve to the same archive path.
	ErrDuplicateEntryPath = errors.New("pak: duplicate entry path")
	// ErrEncrypted means the archive (or its index) is encrypted and payload access was requested.
	ErrEncrypted = errors.New("pak: encrypted payload is not supported")
	// ErrHashMismatchKind is the errors.Is target for every *HashMismatch value.
	ErrHashMismatchKind = errors.New("pak: hash mismatch")
)

// HashMismatch reports a SHA-1 digest mismatch for a specific record or the index.
type HashMismatch struct {
	Path     string
	Expected [20]byte
	Got      [20]byte
}

func (e *HashMismatch) Error() string {
	return fmt.Sprintf("pak: checksum mismatch for %s: expected %x, got %x", e.Path, e.Expected, e.Got)
}

// Unwrap lets errors.Is(err, ErrHashMismatchKind) match every *HashMismatch value.
func (e *HashMismatch) Unwrap() error { return ErrHashMismatchKind }

// InvalidSource reports a malformed pack source specification.
type InvalidSource struct {
	Spec   string
	Reason string
}

func (e *InvalidSource) Error() string {
	return fmt.Sprintf("pak: invalid source %q: %s", e.Spec, e.Reason)
}

func (e *InvalidSource) Unwrap() error { return ErrInvalidSource }
