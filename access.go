// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import "fmt"

// BlockCount reports how many independently-addressable chunks back rec's
// payload, the unit pak/pakfs caches per open file handle per §4.8: one for
// an uncompressed record (its entire payload is a single implicit block),
// or len(rec.Blocks) for a compressed one.
func (p *Pak) BlockCount(rec *Record) int {
	if rec.CompressionMethod == CompressionZlib {
		return len(rec.Blocks)
	}
	return 1
}

// BlockUncompressedRange returns the [start, end) span block i occupies in
// rec's decompressed byte stream, the key the facade maps a read offset
// through to find the containing block.
func (p *Pak) BlockUncompressedRange(rec *Record, i int) (start, end uint64) {
	if rec.CompressionMethod == CompressionZlib {
		blockSize := uint64(rec.CompressionBlockSize)
		start = uint64(i) * blockSize
		end = start + expectedBlockLength(rec, i)
		return start, end
	}
	return 0, rec.UncompressedSize
}

// ReadBlock returns block i of rec's payload, decompressed on the fly when
// rec is compressed, read raw when it is not. The result's length always
// equals the block's uncompressed span per BlockUncompressedRange. Payloads
// stored under an indexed compression method other than "None" or "Zlib"
// (§1 Non-goals: "Compression methods other than none and zlib") are
// rejected rather than served as raw, still-compressed bytes.
func (p *Pak) ReadBlock(rec *Record, i int) ([]byte, error) {
	if rec.Encrypted || p.indexEncrypted {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, rec.Filename)
	}
	if rec.CompressionMethod != CompressionNone && rec.CompressionMethod != CompressionZlib {
		return nil, fmt.Errorf("%w: unsupported compression method for %s", ErrUnsupportedFeature, rec.Filename)
	}

	headerSize, err := inlineRecordHeaderSize(p.ra, int64(rec.Offset), p.version, p.variant, rec) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rec.Filename, err)
	}
	base := int64(rec.Offset) + headerSize

	if rec.CompressionMethod == CompressionNone {
		buf := make([]byte, rec.Size)
		if _, err := p.ra.ReadAt(buf, base); err != nil { //nolint:gosec // bounds validated at load time
			return nil, fmt.Errorf("read %s: %w", rec.Filename, err)
		}
		return buf, nil
	}

	if i < 0 || i >= len(rec.Blocks) {
		return nil, fmt.Errorf("%w: block %d out of range for %s", ErrInvalidRecord, i, rec.Filename)
	}
	b := rec.Blocks[i]
	compressed := make([]byte, b.End-b.Start)
	if _, err := p.ra.ReadAt(compressed, int64(b.Start)); err != nil { //nolint:gosec // bounds validated at load time
		return nil, fmt.Errorf("read block %d of %s: %w", i, rec.Filename, err)
	}

	out, err := inflateBlock(compressed, int(rec.CompressionBlockSize))
	if err != nil {
		return nil, fmt.Errorf("%w: block %d of %s: %w", ErrDecompressError, i, rec.Filename, err)
	}
	return out, nil
}
