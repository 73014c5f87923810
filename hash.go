// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"crypto/sha1" //nolint:gosec // pak integrity digests are specified as SHA-1, byte-compatible with OpenSSL
	"io"
)

// sha1OfSection hashes a bounded span of r, the positioned-read analogue of
// streaming a whole record's on-disk bytes through a SHA-1 digest.
func sha1OfSection(r io.ReaderAt, offset, size int64) ([20]byte, error) {
	var out [20]byte
	h := sha1.New() //nolint:gosec // see package-level note
	sr := io.NewSectionReader(r, offset, size)
	if _, err := io.Copy(h, sr); err != nil {
		return out, err
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}

// streamingSHA1 wraps crypto/sha1 for block-by-block digesting where the
// caller already holds decoded bytes (e.g. inflated compression blocks).
type streamingSHA1 struct {
	h interface {
		io.Writer
		Sum(b []byte) []byte
	}
}

func newStreamingSHA1() *streamingSHA1 {
	return &streamingSHA1{h: sha1.New()} //nolint:gosec // see package-level note
}

func (s *streamingSHA1) Write(p []byte) (int, error) { return s.h.Write(p) }

func (s *streamingSHA1) Sum() [20]byte {
	var out [20]byte
	copy(out[:], s.h.Sum(nil))
	return out
}
