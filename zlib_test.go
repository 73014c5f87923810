// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeflateInflateRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)

	compressed, err := deflateBlock(data)
	if err != nil {
		t.Fatalf("deflateBlock: %v", err)
	}
	if len(compressed) >= len(data) {
		t.Fatalf("compressed size %d did not shrink below %d", len(compressed), len(data))
	}

	got, err := inflateBlock(compressed, len(data))
	if err != nil {
		t.Fatalf("inflateBlock: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
}

func TestInflateBlockInvalidData(t *testing.T) {
	_, err := inflateBlock([]byte{0x00, 0x01, 0x02}, 16)
	if !errors.Is(err, ErrDecompressError) {
		t.Fatalf("want ErrDecompressError, got %v", err)
	}
}

func TestDeflateEmpty(t *testing.T) {
	compressed, err := deflateBlock(nil)
	if err != nil {
		t.Fatalf("deflateBlock(nil): %v", err)
	}
	got, err := inflateBlock(compressed, 0)
	if err != nil {
		t.Fatalf("inflateBlock: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d bytes, want 0", len(got))
	}
}
