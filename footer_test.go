// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"bytes"
	"errors"
	"testing"
)

func encodeV1FooterBytes(t *testing.T, indexOffset, indexSize uint64, sha1 [20]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := encodeFooter(&buf, 1, indexOffset, indexSize, sha1); err != nil {
		t.Fatalf("encodeFooter: %v", err)
	}
	return buf.Bytes()
}

func TestFooterSizeTable(t *testing.T) {
	cases := []struct {
		version int
		want    int64
		ok      bool
	}{
		{1, 44, true}, {3, 44, true},
		{4, 45, true}, {6, 45, true},
		{7, 65, true},
		{8, 193, true},
		{9, 226, true},
		{10, 225, true}, {11, 225, true},
		{0, 0, false}, {12, 0, false},
	}
	for _, tc := range cases {
		got, ok := footerSize(tc.version)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("footerSize(%d) = (%d, %v), want (%d, %v)", tc.version, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCompressionMethodCount(t *testing.T) {
	cases := map[int]int{1: 0, 7: 0, 8: 4, 9: 5, 10: 5, 11: 5}
	for v, want := range cases {
		if got := compressionMethodCount(v); got != want {
			t.Errorf("compressionMethodCount(%d) = %d, want %d", v, got, want)
		}
	}
}

func TestEncodeDecodeFooterV1RoundTrip(t *testing.T) {
	var sha [20]byte
	copy(sha[:], bytes.Repeat([]byte{0x42}, 20))

	raw := encodeV1FooterBytes(t, 12345, 678, sha)
	if int64(len(raw)) != 44 {
		t.Fatalf("encoded footer is %d bytes, want 44", len(raw))
	}

	f, err := decodeFooterBytes(raw, 1, VariantStandard, false)
	if err != nil {
		t.Fatalf("decodeFooterBytes: %v", err)
	}
	if f.Version != 1 || f.IndexOffset != 12345 || f.IndexSize != 678 || f.IndexSHA1 != sha {
		t.Fatalf("got %+v", f)
	}
}

func TestEncodeFooterWritesOnDiskMagicBytes(t *testing.T) {
	var sha [20]byte
	raw := encodeV1FooterBytes(t, 0, 0, sha)
	if !bytes.HasPrefix(raw, []byte{0xE1, 0x12, 0x6F, 0x5A}) {
		t.Fatalf("footer does not start with on-disk magic bytes E1 12 6F 5A: %x", raw[:4])
	}
}

func TestDecodeFooterBytesAcceptsOnDiskMagicLiteral(t *testing.T) {
	var sha [20]byte
	raw := []byte{0xE1, 0x12, 0x6F, 0x5A, 0x01, 0x00, 0x00, 0x00}
	raw = append(raw, make([]byte, 8)...) // IndexOffset
	raw = append(raw, make([]byte, 8)...) // IndexSize
	raw = append(raw, sha[:]...)
	if len(raw) != 44 {
		t.Fatalf("fixture is %d bytes, want 44", len(raw))
	}
	if _, err := decodeFooterBytes(raw, 1, VariantStandard, false); err != nil {
		t.Fatalf("decodeFooterBytes rejected the real on-disk magic bytes: %v", err)
	}
}

func TestDecodeFooterBytesRejectsBadMagic(t *testing.T) {
	var sha [20]byte
	raw := encodeV1FooterBytes(t, 1, 1, sha)
	raw[0] ^= 0xff // corrupt the magic's first byte

	if _, err := decodeFooterBytes(raw, 1, VariantStandard, false); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("want ErrInvalidMagic, got %v", err)
	}

	// ignoreMagic accepts it anyway.
	if _, err := decodeFooterBytes(raw, 1, VariantStandard, true); err != nil {
		t.Fatalf("ignoreMagic=true: unexpected error %v", err)
	}
}

func TestEncodeFooterRejectsUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	var sha [20]byte
	if err := encodeFooter(&buf, 7, 0, 0, sha); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("want ErrUnsupportedVersion, got %v", err)
	}
}

func TestDecodeFooterProbesVersions(t *testing.T) {
	var sha [20]byte
	copy(sha[:], bytes.Repeat([]byte{0x7}, 20))
	footerBytes := encodeV1FooterBytes(t, 100, 50, sha)

	// Simulate a whole file: some data, then the footer at the very end.
	file := append(bytes.Repeat([]byte{0}, 200), footerBytes...)

	f, err := decodeFooter(bytes.NewReader(file), int64(len(file)), VariantStandard, 0, false)
	if err != nil {
		t.Fatalf("decodeFooter: %v", err)
	}
	if f.Version != 1 || f.IndexOffset != 100 || f.IndexSize != 50 {
		t.Fatalf("got %+v", f)
	}
}

func TestDecodeFooterNoMagicAnywhereFails(t *testing.T) {
	file := bytes.Repeat([]byte{0xAA}, 300)
	if _, err := decodeFooter(bytes.NewReader(file), int64(len(file)), VariantStandard, 0, false); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("want ErrInvalidMagic, got %v", err)
	}
}
