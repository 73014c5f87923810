// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"bytes"
	"errors"
	"testing"
)

func TestRecordV1RoundTrip(t *testing.T) {
	rec := &Record{
		Offset:            128,
		Size:              64,
		UncompressedSize:  64,
		CompressionMethod: CompressionNone,
		Timestamp:         1700000000,
	}
	copy(rec.SHA1[:], bytes.Repeat([]byte{0xab}, 20))

	var buf bytes.Buffer
	if err := encodeRecordV1(&buf, rec, false); err != nil {
		t.Fatalf("encodeRecordV1: %v", err)
	}

	got, err := decodeRecordV1(&buf)
	if err != nil {
		t.Fatalf("decodeRecordV1: %v", err)
	}
	if got.Offset != rec.Offset || got.Size != rec.Size || got.UncompressedSize != rec.UncompressedSize {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
	if got.Timestamp != rec.Timestamp || got.SHA1 != rec.SHA1 {
		t.Fatalf("timestamp/sha1 mismatch: got %+v", got)
	}
	if len(got.Blocks) != 0 {
		t.Fatalf("expected no blocks for an uncompressed record, got %+v", got.Blocks)
	}
}

func TestRecordV1InlineOffsetIsZero(t *testing.T) {
	rec := &Record{Offset: 999, Size: 10, UncompressedSize: 10, CompressionMethod: CompressionNone}
	var buf bytes.Buffer
	if err := encodeRecordV1(&buf, rec, true); err != nil {
		t.Fatalf("encodeRecordV1: %v", err)
	}
	got, err := readU64(&buf)
	if err != nil {
		t.Fatalf("readU64: %v", err)
	}
	if got != 0 {
		t.Fatalf("inline offset = %d, want 0", got)
	}
}

func TestRecordV1SizeMismatchRejected(t *testing.T) {
	rec := &Record{CompressionMethod: CompressionNone, Size: 10, UncompressedSize: 20}
	var buf bytes.Buffer
	if err := encodeRecordV1(&buf, rec, false); err != nil {
		t.Fatalf("encodeRecordV1: %v", err)
	}
	if _, err := decodeRecordV1(&buf); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("want ErrInvalidRecord, got %v", err)
	}
}

func TestRecordV3RoundTripWithBlocks(t *testing.T) {
	rec := &Record{
		Offset:               256,
		Size:                 40,
		UncompressedSize:     100,
		CompressionMethod:    CompressionZlib,
		Blocks:               []CompressionBlock{{Start: 300, End: 320}, {Start: 320, End: 340}},
		Encrypted:            false,
		CompressionBlockSize: 64,
	}
	copy(rec.SHA1[:], bytes.Repeat([]byte{0x11}, 20))

	var buf bytes.Buffer
	if err := encodeRecordV3(&buf, rec, false); err != nil {
		t.Fatalf("encodeRecordV3: %v", err)
	}

	got, err := decodeRecordV3(&buf, VariantStandard)
	if err != nil {
		t.Fatalf("decodeRecordV3: %v", err)
	}
	if got.Offset != rec.Offset || got.Size != rec.Size || got.UncompressedSize != rec.UncompressedSize {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
	if len(got.Blocks) != 2 || got.Blocks[0] != rec.Blocks[0] || got.Blocks[1] != rec.Blocks[1] {
		t.Fatalf("got blocks %+v, want %+v", got.Blocks, rec.Blocks)
	}
	if got.CompressionBlockSize != rec.CompressionBlockSize {
		t.Fatalf("got block size %d, want %d", got.CompressionBlockSize, rec.CompressionBlockSize)
	}
}

func TestOnDiskHeaderSize(t *testing.T) {
	cases := []struct {
		name    string
		version int
		variant Variant
		rec     *Record
		want    int64
	}{
		{"v1 base", 1, VariantStandard, &Record{CompressionMethod: CompressionNone}, v1RecordHeaderSize},
		{"v2 base", 2, VariantStandard, &Record{CompressionMethod: CompressionNone}, v2RecordHeaderSize},
		{"v3 uncompressed", 3, VariantStandard, &Record{CompressionMethod: CompressionNone}, v3RecordHeaderSize},
		{
			"v3 compressed two blocks",
			3, VariantStandard,
			&Record{CompressionMethod: CompressionZlib, Blocks: make([]CompressionBlock, 2)},
			v3RecordHeaderSize + 4 + 2*compressionBlockSize,
		},
		{
			"conan exiles overrides version base",
			3, VariantConanExiles,
			&Record{CompressionMethod: CompressionNone},
			conanExilesRecordHeaderSize,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := onDiskHeaderSize(tc.version, tc.variant, tc.rec); got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRecordPrefixBytes(t *testing.T) {
	cases := []struct {
		version int
		variant Variant
		method  CompressionMethod
		want    int64
	}{
		{3, VariantStandard, CompressionZlib, 0},
		{4, VariantStandard, CompressionNone, 0},
		{4, VariantStandard, CompressionZlib, 4},
		{4, VariantConanExiles, CompressionZlib, 20},
	}
	for _, tc := range cases {
		if got := recordPrefixBytes(tc.version, tc.variant, tc.method); got != tc.want {
			t.Errorf("recordPrefixBytes(%d, %s, %d) = %d, want %d", tc.version, tc.variant, tc.method, got, tc.want)
		}
	}
}

func TestBitfieldAndBitSet(t *testing.T) {
	v := uint32(0b1011_0100)
	if got := bitfield(v, 2, 3); got != 0b101 {
		t.Fatalf("bitfield = %b, want %b", got, 0b101)
	}
	if !bitSet(v, 2) {
		t.Fatalf("bit 2 should be set")
	}
	if bitSet(v, 0) {
		t.Fatalf("bit 0 should not be set")
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ v, align, want uint64 }{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
	}
	for _, tc := range cases {
		if got := alignUp(tc.v, tc.align); got != tc.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tc.v, tc.align, got, tc.want)
		}
	}
}

func TestDecodeEncodedRecordUncompressedSingleBlock(t *testing.T) {
	// header bits: block_size_selector=0, block_count=1, encrypted=0,
	// method=0 (None), size32/usize32/offset32 all clear -> 64-bit fields,
	// but method None skips reading a size field entirely.
	var buf bytes.Buffer
	header := uint32(1) << encBlockCountShift // block_count = 1, method = 0 (None)
	if err := writeU32(&buf, header); err != nil {
		t.Fatal(err)
	}
	if err := writeU64(&buf, 1000); err != nil { // offset
		t.Fatal(err)
	}
	if err := writeU64(&buf, 4096); err != nil { // uncompressed size
		t.Fatal(err)
	}

	rec, err := decodeEncodedRecord(&buf)
	if err != nil {
		t.Fatalf("decodeEncodedRecord: %v", err)
	}
	if rec.Offset != 1000 || rec.UncompressedSize != 4096 || rec.Size != 4096 {
		t.Fatalf("got %+v", rec)
	}
	if rec.CompressionMethod != CompressionNone {
		t.Fatalf("got method %d, want None", rec.CompressionMethod)
	}
}

func TestDecodeEncodedRecordCompressedSingleBlock(t *testing.T) {
	var buf bytes.Buffer
	var header uint32
	header |= 1 << encBlockCountShift // block_count = 1
	header |= 1 << encMethodShift     // method index 1
	if err := writeU32(&buf, header); err != nil {
		t.Fatal(err)
	}
	if err := writeU64(&buf, 2000); err != nil { // offset
		t.Fatal(err)
	}
	if err := writeU64(&buf, 8192); err != nil { // uncompressed size
		t.Fatal(err)
	}
	if err := writeU64(&buf, 4096); err != nil { // compressed size
		t.Fatal(err)
	}

	rec, err := decodeEncodedRecord(&buf)
	if err != nil {
		t.Fatalf("decodeEncodedRecord: %v", err)
	}
	if rec.Size != 4096 || rec.UncompressedSize != 8192 {
		t.Fatalf("got %+v", rec)
	}
	if !rec.CompressionIndexed {
		t.Fatalf("expected CompressionIndexed=true")
	}
	if len(rec.Blocks) != 1 || rec.Blocks[0] != (CompressionBlock{Start: 0, End: 4096}) {
		t.Fatalf("got blocks %+v", rec.Blocks)
	}
}
