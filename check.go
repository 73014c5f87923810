// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"context"
	"fmt"
)

// Check verifies every selected record against opts, fanning work out to a
// bounded worker pool and reassembling results in record-index order, per
// §4.5 and §5.
func (p *Pak) Check(ctx context.Context, opts CheckOptions) (*CheckReport, error) {
	if p.ra == nil {
		return nil, ErrNilReader
	}
	opts.applyDefaults()

	idx, err := p.findPaths(opts.Paths)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(idx))
	records := make([]*Record, len(idx))
	for seq, i := range idx {
		paths[seq], records[seq] = p.recordAt(i)
	}

	raw := runOrdered(ctx, len(idx), opts.Workers, func(seq int) func() any {
		return func() any {
			return CheckResult{Path: paths[seq], Err: p.checkRecord(records[seq], opts)}
		}
	})

	report := &CheckReport{Results: make([]CheckResult, len(raw))}
	for i, r := range raw {
		cr, _ := r.(CheckResult) //nolint:errcheck // runOrdered only ever produces what makeJob returns
		report.Results[i] = cr
		if cr.Err != nil {
			report.Failed++
		}
	}
	return report, nil
}

// checkRecord runs the per-record verification pipeline of §4.5: read the
// on-disk payload, optionally SHA-1 it, optionally inflate and verify
// block lengths.
func (p *Pak) checkRecord(rec *Record, opts CheckOptions) error {
	if rec.Encrypted || p.indexEncrypted {
		return fmt.Errorf("%w: %s", ErrEncrypted, rec.Filename)
	}

	needPayload := opts.CompressedHash || (opts.DecompressedHash && rec.CompressionMethod == CompressionZlib)
	if !needPayload {
		return nil
	}

	headerSize, err := inlineRecordHeaderSize(p.ra, int64(rec.Offset), p.version, p.variant, rec) //nolint:gosec // offsets bounded by file size at load time
	if err != nil {
		return fmt.Errorf("%s: %w", rec.Filename, err)
	}
	payloadOffset := int64(rec.Offset) + headerSize

	payload := make([]byte, rec.Size)
	if _, err := p.ra.ReadAt(payload, payloadOffset); err != nil { //nolint:gosec // rec.Size bounded by file size at load time
		return fmt.Errorf("read payload for %s: %w", rec.Filename, err)
	}

	if opts.CompressedHash {
		if got := sha1Sum(payload); got != rec.SHA1 {
			return &HashMismatch{Path: rec.Filename, Expected: rec.SHA1, Got: got}
		}
	}

	if !opts.DecompressedHash || rec.CompressionMethod != CompressionZlib {
		return nil
	}

	return p.checkDecompressedBlocks(rec, payload)
}

// checkDecompressedBlocks inflates every block and verifies each
// non-terminal block inflates to exactly compression_block_size bytes and
// the final block to the remainder, per §4.5 step 3.
func (p *Pak) checkDecompressedBlocks(rec *Record, payload []byte) error {
	headerSize, err := inlineRecordHeaderSize(p.ra, int64(rec.Offset), p.version, p.variant, rec) //nolint:gosec
	if err != nil {
		return fmt.Errorf("%s: %w", rec.Filename, err)
	}
	base := int64(rec.Offset) + headerSize
	var decoded uint64
	for i, b := range rec.Blocks {
		start := int64(b.Start) - base
		end := int64(b.End) - base
		if start < 0 || end > int64(len(payload)) || start > end {
			return fmt.Errorf("%w: block %d out of bounds for %s", ErrInvalidRecord, i, rec.Filename)
		}

		out, err := inflateBlock(payload[start:end], int(rec.CompressionBlockSize))
		if err != nil {
			return fmt.Errorf("%w: block %d of %s: %w", ErrDecompressError, i, rec.Filename, err)
		}

		want := expectedBlockLength(rec, i)
		if uint64(len(out)) != want {
			return fmt.Errorf("%w: block %d of %s: got %d bytes, want %d", ErrDecompressError, i, rec.Filename, len(out), want)
		}
		decoded += uint64(len(out))
	}

	if decoded != rec.UncompressedSize {
		return fmt.Errorf("%w: %s decoded to %d bytes, want %d", ErrDecompressError, rec.Filename, decoded, rec.UncompressedSize)
	}
	return nil
}

// expectedBlockLength returns the uncompressed length block i must inflate
// to: compression_block_size for every block but the last, and the
// remainder (or a full block when the remainder is zero) for the last.
func expectedBlockLength(rec *Record, i int) uint64 {
	if i != len(rec.Blocks)-1 {
		return uint64(rec.CompressionBlockSize)
	}
	rem := rec.UncompressedSize % uint64(rec.CompressionBlockSize)
	if rem == 0 {
		return uint64(rec.CompressionBlockSize)
	}
	return rem
}

func sha1Sum(b []byte) [20]byte {
	h := newStreamingSHA1()
	_, _ = h.Write(b)
	return h.Sum()
}
