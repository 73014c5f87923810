// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

type packOutcome struct {
	rec     *Record
	payload []byte
	err     error
}

// Pack writes a v1–v3 pak archive to out from sources, per §4.7: a worker
// pool compresses and hashes each file concurrently, then a single
// sequential pass appends records in submission order so offsets are
// monotonically increasing regardless of worker completion order.
func Pack(ctx context.Context, out io.WriteSeeker, sources []Source, opts PackOptions) (*PackReport, error) {
	if out == nil {
		return nil, ErrNilWriter
	}
	opts.applyDefaults()
	if opts.Version < 1 || opts.Version > 3 {
		return nil, fmt.Errorf("%w: pack only supports v1-v3, got v%d", ErrUnsupportedVersion, opts.Version)
	}
	if len(sources) == 0 {
		return nil, ErrEmptySources
	}

	resolved, err := walkSources(sources)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, ErrEmptySources
	}

	raw := runOrdered(ctx, len(resolved), opts.Workers, func(seq int) func() any {
		return func() any {
			rec, payload, err := compressSource(resolved[seq], opts)
			return packOutcome{rec: rec, payload: payload, err: err}
		}
	})

	records := make([]namedRecord, 0, len(resolved))
	var offset uint64
	for seq, r := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		oc, _ := r.(packOutcome) //nolint:errcheck // runOrdered only ever produces what makeJob returns
		if oc.err != nil {
			return nil, fmt.Errorf("pack %s: %w", resolved[seq].ArchivePath, oc.err)
		}

		rec := oc.rec
		rec.Offset = offset
		rec.Filename = resolved[seq].ArchivePath

		headerSize := onDiskHeaderSize(opts.Version, VariantStandard, rec)
		rebaseRecordBlocks(rec, rec.Offset+uint64(headerSize)) //nolint:gosec // header sizes are small positive constants

		var header bytes.Buffer
		if err := encodeRecordInline(&header, opts.Version, rec); err != nil {
			return nil, fmt.Errorf("encode header for %s: %w", rec.Filename, err)
		}
		if int64(header.Len()) != headerSize {
			return nil, fmt.Errorf("%w: header size mismatch for %s", ErrInvalidRecord, rec.Filename)
		}

		if _, err := out.Write(header.Bytes()); err != nil {
			return nil, fmt.Errorf("write header for %s: %w", rec.Filename, err)
		}
		if _, err := out.Write(oc.payload); err != nil {
			return nil, fmt.Errorf("write payload for %s: %w", rec.Filename, err)
		}

		offset += uint64(headerSize) + uint64(len(oc.payload)) //nolint:gosec // header sizes are small positive constants
		records = append(records, namedRecord{Path: rec.Filename, Record: rec})

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(rec.Filename, rec.Size)
		}
	}

	indexOffset := offset
	var indexBuf bytes.Buffer
	if err := encodeLegacyIndex(&indexBuf, opts.Version, opts.MountPoint, records); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	indexSHA1 := sha1Sum(indexBuf.Bytes())

	if _, err := out.Write(indexBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	if err := encodeFooter(out, opts.Version, indexOffset, uint64(indexBuf.Len()), indexSHA1); err != nil {
		return nil, fmt.Errorf("write footer: %w", err)
	}

	return &PackReport{
		WrittenRecords: len(records),
		DataSize:       int64(indexOffset), //nolint:gosec // archive sizes fit int64 in practice
		IndexSize:      int64(indexBuf.Len()),
	}, nil
}

// PackFile is a convenience wrapper that creates outPath and packs sources
// into it, mirroring the teacher's PackFile helper over its lower-level
// rewrite entry point.
func PackFile(ctx context.Context, outPath string, sources []Source, opts PackOptions) (*PackReport, error) {
	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create pak: %w", err)
	}
	defer func() { _ = f.Close() }()

	report, err := Pack(ctx, f, sources, opts)
	if err != nil {
		return nil, err
	}
	return report, f.Close()
}

func encodeRecordInline(w io.Writer, version int, rec *Record) error {
	switch version {
	case 1:
		return encodeRecordV1(w, rec, true)
	case 2:
		return encodeRecordV2(w, rec, true)
	default:
		return encodeRecordV3(w, rec, true)
	}
}

// rebaseRecordBlocks shifts a record's compression blocks, currently holding
// payload-relative [0, len) spans, onto absolute file offsets starting at
// base (the record's payload offset).
func rebaseRecordBlocks(rec *Record, base uint64) {
	for i := range rec.Blocks {
		length := rec.Blocks[i].End - rec.Blocks[i].Start
		rec.Blocks[i].Start = base
		rec.Blocks[i].End = base + length
		base = rec.Blocks[i].End
	}
}

// compressSource reads one resolved source file and produces its Record
// plus on-disk payload bytes, per §4.7 step 2. Compression blocks are
// numbered from zero (payload-relative); the coordinator rebases them onto
// absolute file offsets once the record's final position is known.
func compressSource(rs resolvedSource, opts PackOptions) (*Record, []byte, error) {
	data, err := os.ReadFile(rs.HostPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", rs.HostPath, err)
	}

	rec := &Record{UncompressedSize: uint64(len(data))} //nolint:gosec // file sizes fit uint64

	if !rs.Zlib || len(data) == 0 {
		rec.CompressionMethod = CompressionNone
		rec.Size = rec.UncompressedSize
		rec.SHA1 = sha1Sum(data)
		return rec, data, nil
	}

	// v1/v2 records carry no on-disk block list (decodeRecordV1/V2 always
	// synthesize a single whole-payload block), so only v>=3 may split the
	// payload into independently-inflatable compression blocks.
	blockSize := len(data)
	if opts.Version >= 3 {
		blockSize = int(opts.CompressionBlockSize)
	}
	var payload []byte
	blocks := make([]CompressionBlock, 0, (len(data)/blockSize)+1)
	for off := 0; off < len(data); off += blockSize {
		end := off + blockSize
		if end > len(data) {
			end = len(data)
		}
		compressed, err := deflateBlock(data[off:end])
		if err != nil {
			return nil, nil, fmt.Errorf("compress block of %s: %w", rs.HostPath, err)
		}
		start := uint64(len(payload)) //nolint:gosec // payload sizes fit uint64
		payload = append(payload, compressed...)
		blocks = append(blocks, CompressionBlock{Start: start, End: uint64(len(payload))}) //nolint:gosec
	}

	if len(payload) >= len(data) {
		// Compression did not pay off; store the original bytes instead.
		rec.CompressionMethod = CompressionNone
		rec.Size = rec.UncompressedSize
		rec.SHA1 = sha1Sum(data)
		return rec, data, nil
	}

	rec.CompressionMethod = CompressionZlib
	rec.CompressionBlockSize = uint32(blockSize) //nolint:gosec // configured block sizes are small
	rec.Blocks = blocks
	rec.Size = uint64(len(payload)) //nolint:gosec // payload sizes fit uint64
	rec.SHA1 = sha1Sum(payload)
	return rec, payload, nil
}
