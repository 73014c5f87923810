// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Pak owns an open pak file handle plus its fully decoded record list and is
// the sole entry point for check/unpack/pack/mount operations, per §3
// "Lifecycle": records are immutable after load.
type Pak struct {
	ra   io.ReaderAt
	file *os.File
	size int64

	version            int
	variant            Variant
	mountPoint         string
	pathHashSeed       uint64
	compressionMethods []string
	encryptionKeyGUID  uuid.UUID
	indexEncrypted     bool
	frozenIndex        bool
	records            []namedRecord

	mu     sync.Mutex
	closed bool
}

// Open opens the pak file at path and decodes its footer and index.
func Open(path string) (*Pak, error) {
	return OpenWithOptions(path, OpenOptions{})
}

// OpenWithOptions opens the pak file at path using explicit open options.
func OpenWithOptions(path string, opts OpenOptions) (*Pak, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pak: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat pak: %w", err)
	}

	p, err := OpenReaderAt(f, fi.Size(), opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	p.file = f
	return p, nil
}

// OpenReaderAt decodes a pak footer and index from an already-open
// random-access source, without taking ownership of closing it.
func OpenReaderAt(ra io.ReaderAt, size int64, opts OpenOptions) (*Pak, error) {
	if ra == nil {
		return nil, ErrNilReader
	}
	opts.applyDefaults()

	p := &Pak{ra: ra, size: size}
	if err := p.load(opts); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Pak) load(opts OpenOptions) error {
	variant := opts.Variant
	f, err := decodeFooter(p.ra, p.size, variant, opts.ForceVersion, opts.IgnoreMagic)
	if err != nil && variant == VariantStandard && opts.ForceVersion == 0 {
		// Probe the Conan Exiles dialect before giving up, mirroring
		// original_source/src/pak.rs's variant fallback at open time.
		if f2, err2 := decodeFooter(p.ra, p.size, VariantConanExiles, 0, opts.IgnoreMagic); err2 == nil {
			f, err = f2, nil
		}
	}
	if err != nil {
		return err
	}

	p.version = f.Version
	p.variant = f.Variant
	p.compressionMethods = f.CompressionMethods
	p.encryptionKeyGUID = f.EncryptionKeyGUID
	p.frozenIndex = f.FrozenIndex
	p.indexEncrypted = f.Encrypted

	if f.IndexOffset+f.IndexSize > uint64(p.size) { //nolint:gosec // size is non-negative
		return fmt.Errorf("%w: index extends past end of file", ErrInvalidRecord)
	}

	indexBuf := make([]byte, f.IndexSize)
	if _, err := p.ra.ReadAt(indexBuf, int64(f.IndexOffset)); err != nil { //nolint:gosec // bounds checked above
		return fmt.Errorf("read index: %w", err)
	}

	gotHash, err := sha1OfSection(p.ra, int64(f.IndexOffset), int64(f.IndexSize)) //nolint:gosec // bounds checked above
	if err != nil {
		return fmt.Errorf("hash index: %w", err)
	}
	if gotHash != f.IndexSHA1 {
		return &HashMismatch{Path: "<index>", Expected: f.IndexSHA1, Got: gotHash}
	}

	if f.Version >= 10 {
		mountPoint, seed, records, err := decodeModernIndex(bytes.NewReader(indexBuf), p.ra, p.size)
		if err != nil {
			return fmt.Errorf("decode index: %w", err)
		}
		p.mountPoint = mountPoint
		p.pathHashSeed = seed
		p.records, err = resolveEncodedRecordOffsets(p.ra, records, f.Variant, p.compressionMethods)
		if err != nil {
			return err
		}
	} else {
		mountPoint, records, err := decodeLegacyIndex(bytes.NewReader(indexBuf), f.Version, f.Variant)
		if err != nil {
			return fmt.Errorf("decode index: %w", err)
		}
		p.mountPoint = mountPoint
		p.records, err = resolveLegacyRecordOffsets(records, f.Version, f.Variant)
		if err != nil {
			return err
		}
	}

	sort.SliceStable(p.records, func(i, j int) bool { return p.records[i].Record.Offset < p.records[j].Record.Offset })
	return nil
}

// resolveEncodedRecordOffsets resolves each encoded record's compression
// method through the footer's name table (entry 0 is implicitly "None",
// per §6), then rebases its compression blocks from the payload-relative
// offsets decodeEncodedRecord produces onto absolute file offsets — the
// same normalization resolveLegacyRecordOffsets/rebaseRecordBlocks perform
// for v<10 and for pack's encode direction, respectively.
func resolveEncodedRecordOffsets(ra io.ReaderAt, records []namedRecord, variant Variant, methods []string) ([]namedRecord, error) {
	for _, nr := range records {
		idx := int(nr.Record.CompressionMethod)
		if idx == 0 {
			nr.Record.CompressionMethod = CompressionNone
			continue
		}
		name := ""
		if idx-1 >= 0 && idx-1 < len(methods) {
			name = methods[idx-1]
		}
		nr.Record.CompressionName = name
		if isZlibMethodName(name) {
			nr.Record.CompressionMethod = CompressionZlib
		} else {
			nr.Record.CompressionMethod = CompressionOther
		}

		if len(nr.Record.Blocks) == 0 {
			continue
		}
		headerSize, err := inlineRecordHeaderSize(ra, int64(nr.Record.Offset), 10, variant, nr.Record) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("resolve block offsets for %s: %w", nr.Path, err)
		}
		base := nr.Record.Offset + uint64(headerSize) //nolint:gosec // header sizes are small positive constants
		for b := range nr.Record.Blocks {
			length := nr.Record.Blocks[b].End - nr.Record.Blocks[b].Start
			nr.Record.Blocks[b].Start = base
			nr.Record.Blocks[b].End = base + length
			base = nr.Record.Blocks[b].End
		}
	}
	return records, nil
}

func isZlibMethodName(name string) bool {
	return name == "Zlib" || name == "zlib"
}

// resolveLegacyRecordOffsets attaches each record's archive path to
// Record.Filename and normalizes block offsets to absolute file offsets:
// for v1/v2 it rebases the single [0, size) block decodeRecordV1/V2
// synthesize onto the record's payload and sets the block size to the whole
// uncompressed size; for v==7 (and v5/v6 per §9's parsed-as-v7 decision) it
// reinterprets block offsets as relative to the record's own offset.
func resolveLegacyRecordOffsets(records []namedRecord, version int, variant Variant) ([]namedRecord, error) {
	relative := version >= 5 && version <= 7
	for i := range records {
		rec := records[i].Record
		rec.Filename = records[i].Path
		if version <= 2 {
			if len(rec.Blocks) > 0 && rec.CompressionBlockSize == 0 {
				rec.CompressionBlockSize = uint32(rec.UncompressedSize) //nolint:gosec // v1/v2 payloads are one block
			}
			rebaseRecordBlocks(rec, rec.Offset+uint64(onDiskHeaderSize(version, variant, rec))) //nolint:gosec // header sizes are small positive constants
			continue
		}
		if !relative {
			continue
		}
		headerSize := onDiskHeaderSize(version, variant, rec)
		base := rec.Offset + uint64(headerSize) //nolint:gosec // header sizes are small positive constants
		for b := range rec.Blocks {
			if int64(rec.Blocks[b].Start) < 0 {
				return nil, fmt.Errorf("%w: negative relative block offset", ErrInvalidRecord)
			}
			rec.Blocks[b].Start += base
			rec.Blocks[b].End += base
		}
	}
	return records, nil
}

// Close releases the underlying file handle if Pak opened it itself.
func (p *Pak) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// Version returns the on-disk pak version.
func (p *Pak) Version() int { return p.version }

// Variant returns the detected per-game dialect.
func (p *Pak) Variant() Variant { return p.variant }

// MountPoint returns the cosmetic mount-point prefix stored in the index.
func (p *Pak) MountPoint() string { return p.mountPoint }

// PathHashSeed returns the v>=10 index's path_hash_seed, preserved verbatim
// per §9 Open Question 2.
func (p *Pak) PathHashSeed() uint64 { return p.pathHashSeed }

// CompressionMethods returns the v>=8 compression-method name table.
func (p *Pak) CompressionMethods() []string { return p.compressionMethods }

// EncryptionKeyGUID returns the footer's encryption key GUID.
func (p *Pak) EncryptionKeyGUID() uuid.UUID { return p.encryptionKeyGUID }

// IndexEncrypted reports whether the footer's encrypted flag is set; the
// codec surfaces this but refuses to decrypt payloads, per §1 Non-goals.
func (p *Pak) IndexEncrypted() bool { return p.indexEncrypted }

// FrozenIndex reports the v==9 frozen_index flag.
func (p *Pak) FrozenIndex() bool { return p.frozenIndex }

// Records returns the decoded, offset-sorted record list with archive
// paths already attached to Record.Filename.
func (p *Pak) Records() []*Record {
	out := make([]*Record, len(p.records))
	for i, nr := range p.records {
		out[i] = nr.Record
	}
	return out
}

// recordAt returns the Record and its recorded path for index i.
func (p *Pak) recordAt(i int) (string, *Record) {
	return p.records[i].Path, p.records[i].Record
}

func (p *Pak) recordCount() int { return len(p.records) }

// findPaths resolves a requested subset of archive paths to record
// indices, or every index when paths is empty.
func (p *Pak) findPaths(paths []string) ([]int, error) {
	if len(paths) == 0 {
		idx := make([]int, len(p.records))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}

	byPath := make(map[string]int, len(p.records))
	for i, nr := range p.records {
		byPath[nr.Path] = i
	}

	idx := make([]int, 0, len(paths))
	for _, want := range paths {
		i, ok := byPath[want]
		if !ok {
			return nil, fmt.Errorf("%w: no such archive path %q", ErrInvalidRecord, want)
		}
		idx = append(idx, i)
	}
	return idx, nil
}
