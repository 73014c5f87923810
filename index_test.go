// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"bytes"
	"sort"
	"testing"
)

func TestLegacyIndexRoundTrip(t *testing.T) {
	records := []namedRecord{
		{Path: "a.txt", Record: &Record{Size: 10, UncompressedSize: 10, CompressionMethod: CompressionNone}},
		{Path: "dir/b.txt", Record: &Record{Size: 20, UncompressedSize: 20, CompressionMethod: CompressionNone, Offset: 64}},
	}

	var buf bytes.Buffer
	if err := encodeLegacyIndex(&buf, 1, "../../mymod", records); err != nil {
		t.Fatalf("encodeLegacyIndex: %v", err)
	}

	mountPoint, got, err := decodeLegacyIndex(&buf, 1, VariantStandard)
	if err != nil {
		t.Fatalf("decodeLegacyIndex: %v", err)
	}
	if mountPoint != "../../mymod" {
		t.Fatalf("got mount point %q", mountPoint)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Path != "a.txt" || got[1].Path != "dir/b.txt" {
		t.Fatalf("got paths %q, %q", got[0].Path, got[1].Path)
	}
	if got[1].Record.Offset != 64 {
		t.Fatalf("got offset %d, want 64", got[1].Record.Offset)
	}
}

func TestEncodeLegacyIndexRejectsUnsupportedVersion(t *testing.T) {
	if err := encodeLegacyIndex(&bytes.Buffer{}, 10, "", nil); err == nil {
		t.Fatal("expected an error for v10 write")
	}
}

func TestIndexPointerAbsentWhenFlagFalse(t *testing.T) {
	var buf bytes.Buffer
	if err := writeBool(&buf, false); err != nil {
		t.Fatal(err)
	}
	p, err := readIndexPointer(&buf)
	if err != nil {
		t.Fatalf("readIndexPointer: %v", err)
	}
	if p != nil {
		t.Fatalf("got %+v, want nil", p)
	}
}

func TestIndexPointerPresent(t *testing.T) {
	var buf bytes.Buffer
	if err := writeBool(&buf, true); err != nil {
		t.Fatal(err)
	}
	if err := writeU64(&buf, 10); err != nil {
		t.Fatal(err)
	}
	if err := writeU64(&buf, 20); err != nil {
		t.Fatal(err)
	}
	var sha [20]byte
	copy(sha[:], bytes.Repeat([]byte{0x5}, 20))
	buf.Write(sha[:])

	p, err := readIndexPointer(&buf)
	if err != nil {
		t.Fatalf("readIndexPointer: %v", err)
	}
	if p == nil || p.Offset != 10 || p.Size != 20 || p.Hash != sha {
		t.Fatalf("got %+v", p)
	}
}

func TestFullDirectoryIndexDecodeAndFlatten(t *testing.T) {
	var buf bytes.Buffer
	if err := writeU32(&buf, 1); err != nil { // directory count
		t.Fatal(err)
	}
	if err := writeSizedString(&buf, "/data"); err != nil {
		t.Fatal(err)
	}
	if err := writeU32(&buf, 2); err != nil { // file count
		t.Fatal(err)
	}
	if err := writeSizedString(&buf, "one.uasset"); err != nil {
		t.Fatal(err)
	}
	if err := writeU32(&buf, 0); err != nil {
		t.Fatal(err)
	}
	if err := writeSizedString(&buf, "two.uasset"); err != nil {
		t.Fatal(err)
	}
	if err := writeU32(&buf, 128); err != nil {
		t.Fatal(err)
	}

	fdi, err := decodeFullDirectoryIndex(&buf)
	if err != nil {
		t.Fatalf("decodeFullDirectoryIndex: %v", err)
	}

	entries := flattenFullDirectoryIndex(fdi)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Path != "data/one.uasset" || entries[0].BlobOffset != 0 {
		t.Fatalf("got %+v", entries[0])
	}
	if entries[1].Path != "data/two.uasset" || entries[1].BlobOffset != 128 {
		t.Fatalf("got %+v", entries[1])
	}
}
