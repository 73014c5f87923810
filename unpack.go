// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Unpack writes every selected record to outputRoot, preserving relative
// paths under the mount point is the caller's job (archive paths are
// written verbatim); see §4.6. Files are written by a bounded worker pool,
// completion is reported (via OnEntryDone) in record-index order.
func (p *Pak) Unpack(ctx context.Context, outputRoot string, opts UnpackOptions) (*UnpackReport, error) {
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
	destinations := make([]string, len(idx))
	for seq, i := range idx {
		paths[seq], records[seq] = p.recordAt(i)
		dest, err := safeRelativePath(outputRoot, paths[seq])
		if err != nil {
			return nil, err
		}
		destinations[seq] = dest
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", paths[seq], err)
		}
	}

	type unpackOutcome struct {
		written int64
		err     error
	}

	raw := runOrdered(ctx, len(idx), opts.Workers, func(seq int) func() any {
		return func() any {
			written, err := p.writeRecordFile(records[seq], destinations[seq])
			return unpackOutcome{written: written, err: err}
		}
	})

	report := &UnpackReport{Results: make([]UnpackResult, 0, len(raw))}
	for seq, r := range raw {
		oc, _ := r.(unpackOutcome) //nolint:errcheck // runOrdered only ever produces what makeJob returns
		if oc.err != nil {
			return report, fmt.Errorf("unpack %s: %w", paths[seq], oc.err)
		}
		report.Results = append(report.Results, UnpackResult{
			Path:       paths[seq],
			OutputPath: destinations[seq],
			Written:    oc.written,
		})
		if opts.OnEntryDone != nil {
			opts.OnEntryDone(paths[seq], oc.written, destinations[seq])
		}
	}

	return report, nil
}

// writeRecordFile decodes one record's payload and writes it to dest,
// inflating block-by-block for compressed records so the whole payload
// never needs to live in memory at once, per §4.6.
func (p *Pak) writeRecordFile(rec *Record, dest string) (int64, error) {
	if rec.Encrypted || p.indexEncrypted {
		return 0, fmt.Errorf("%w: %s", ErrEncrypted, rec.Filename)
	}

	headerSize, err := inlineRecordHeaderSize(p.ra, int64(rec.Offset), p.version, p.variant, rec) //nolint:gosec
	if err != nil {
		return 0, err
	}
	base := int64(rec.Offset) + headerSize

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dest, err)
	}
	defer func() { _ = f.Close() }()

	var written int64
	switch rec.CompressionMethod {
	case CompressionNone:
		buf := make([]byte, rec.Size)
		if _, err := p.ra.ReadAt(buf, base); err != nil { //nolint:gosec // bounds validated at load time
			return 0, fmt.Errorf("read %s: %w", rec.Filename, err)
		}
		if written, err = writeAll(f, buf); err != nil {
			return written, err
		}
	case CompressionZlib:
		for i, b := range rec.Blocks {
			size := int64(b.End - b.Start)
			compressed := make([]byte, size)
			if _, err := p.ra.ReadAt(compressed, int64(b.Start)); err != nil { //nolint:gosec
				return written, fmt.Errorf("read block %d of %s: %w", i, rec.Filename, err)
			}
			out, err := inflateBlock(compressed, int(rec.CompressionBlockSize))
			if err != nil {
				return written, fmt.Errorf("%w: block %d of %s: %w", ErrDecompressError, i, rec.Filename, err)
			}
			n, err := writeAll(f, out)
			written += n
			if err != nil {
				return written, err
			}
		}
	default:
		return 0, fmt.Errorf("%w: compression method for %s", ErrUnsupportedFeature, rec.Filename)
	}

	return written, nil
}

func writeAll(f *os.File, b []byte) (int64, error) {
	n, err := f.Write(b)
	return int64(n), err
}
