// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"fmt"
	"io"
)

// Fixed on-disk record header sizes, excluding variable-length compression
// block lists. See original_source/src/pak.rs's header-size constants.
const (
	v1RecordHeaderSize         = 56
	v2RecordHeaderSize         = 48
	v3RecordHeaderSize         = 53
	conanExilesRecordHeaderSize = v3RecordHeaderSize + 4
	compressionBlockSize        = 16 // one CompressionBlock on disk: two u64 offsets
)

// CompressionBlock is a contiguous span of compressed bytes decompressing to
// at most compression_block_size bytes, normalized to absolute file offsets.
type CompressionBlock struct {
	Start uint64
	End   uint64
}

// Record is one archived file's metadata, decoded from either a legacy
// per-version header or a v>=10 bit-packed EncodedRecord, per §3.
type Record struct {
	Filename            string
	Offset              uint64
	Size                uint64
	UncompressedSize    uint64
	CompressionMethod   CompressionMethod
	CompressionIndexed  bool   // true when CompressionMethod was read via the v>=8 name table index
	CompressionName     string // resolved name table entry when CompressionIndexed is true
	Timestamp           uint64
	HasTimestamp        bool
	SHA1                [20]byte
	Blocks              []CompressionBlock
	Encrypted           bool
	CompressionBlockSize uint32
}

// onDiskHeaderSize returns the fixed-plus-block header size a data record
// occupies inline before its payload, mirroring original_source/src/pak.rs's
// Pak::header_size: base size for the version/variant plus, for a compressed
// v>=3 record, the block-count u32 and 16 bytes per compression block.
func onDiskHeaderSize(version int, variant Variant, r *Record) int64 {
	base := v1RecordHeaderSize
	switch {
	case variant == VariantConanExiles:
		base = conanExilesRecordHeaderSize
	case version == 1:
		base = v1RecordHeaderSize
	case version == 2:
		base = v2RecordHeaderSize
	default:
		base = v3RecordHeaderSize
	}

	size := int64(base)
	if r.CompressionMethod != CompressionNone && version >= 3 {
		size += 4 // block_count
		size += int64(len(r.Blocks)) * compressionBlockSize
	}
	return size
}

// recordPrefixBytes returns the count of unknown bytes a v>=4 compressed
// data-record copy carries before its payload, per §4.2 ("four unknown
// leading bytes... twenty for Conan Exiles") and §9 Open Question 1. Zero
// for uncompressed records and for v<4, where no such prefix exists.
func recordPrefixBytes(version int, variant Variant, method CompressionMethod) int64 {
	if version < 4 || method == CompressionNone {
		return 0
	}
	if variant == VariantConanExiles {
		return 20
	}
	return 4
}

// countingReader wraps an io.Reader, tracking total bytes consumed so the
// caller can learn how large an inline v>=10 EncodedRecord header was.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// inlineRecordHeaderSize returns the exact byte span an inline data-record
// copy occupies before its payload at the given file offset, dispatching
// on version per §9 "Version dispatch": legacy fixed-plus-block layout for
// v<10, or the bit-packed EncodedRecord form (re-decoded to learn its
// exact size) for v>=10, plus the v>=4 unknown prefix either way.
func inlineRecordHeaderSize(ra io.ReaderAt, offset int64, version int, variant Variant, rec *Record) (int64, error) {
	var headerSize int64
	if version >= 10 {
		sr := io.NewSectionReader(ra, offset, 4+8+8+8+int64(len(rec.Blocks))*4+64)
		cr := &countingReader{r: sr}
		if _, err := decodeEncodedRecord(cr); err != nil {
			return 0, fmt.Errorf("re-decode inline encoded record: %w", err)
		}
		headerSize = cr.n
	} else {
		headerSize = onDiskHeaderSize(version, variant, rec)
	}
	return headerSize + recordPrefixBytes(version, variant, rec.CompressionMethod), nil
}

func decodeRecordV1(r io.Reader) (*Record, error) {
	rec := &Record{HasTimestamp: true}
	var err error
	if rec.Offset, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record offset: %w", err)
	}
	if rec.Size, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record size: %w", err)
	}
	if rec.UncompressedSize, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record uncompressed size: %w", err)
	}
	method, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read record compression method: %w", err)
	}
	rec.CompressionMethod = CompressionMethod(method) //nolint:gosec // validated below
	if rec.Timestamp, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record timestamp: %w", err)
	}
	if _, err := io.ReadFull(r, rec.SHA1[:]); err != nil {
		return nil, fmt.Errorf("read record sha1: %w", err)
	}
	if err := synthesizeWholeRecordBlock(rec); err != nil {
		return nil, err
	}
	return rec, validateRecordCompressionMethod(rec, 1)
}

func decodeRecordV2(r io.Reader) (*Record, error) {
	rec := &Record{}
	var err error
	if rec.Offset, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record offset: %w", err)
	}
	if rec.Size, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record size: %w", err)
	}
	if rec.UncompressedSize, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record uncompressed size: %w", err)
	}
	method, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read record compression method: %w", err)
	}
	rec.CompressionMethod = CompressionMethod(method) //nolint:gosec // validated below
	if _, err := io.ReadFull(r, rec.SHA1[:]); err != nil {
		return nil, fmt.Errorf("read record sha1: %w", err)
	}
	if err := synthesizeWholeRecordBlock(rec); err != nil {
		return nil, err
	}
	return rec, validateRecordCompressionMethod(rec, 2)
}

// decodeRecordV3 decodes the v3-v9 legacy record layout: v2's fields plus
// encrypted/compression_block_size, plus an explicit block list (v>=3).
func decodeRecordV3(r io.Reader, variant Variant) (*Record, error) {
	rec := &Record{}
	var err error
	if rec.Offset, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record offset: %w", err)
	}
	if rec.Size, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record size: %w", err)
	}
	if rec.UncompressedSize, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read record uncompressed size: %w", err)
	}
	method, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read record compression method: %w", err)
	}
	rec.CompressionMethod = CompressionMethod(method) //nolint:gosec // validated below
	if _, err := io.ReadFull(r, rec.SHA1[:]); err != nil {
		return nil, fmt.Errorf("read record sha1: %w", err)
	}
	if rec.CompressionMethod != CompressionNone {
		count, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read record block count: %w", err)
		}
		rec.Blocks = make([]CompressionBlock, count)
		for i := range rec.Blocks {
			start, err := readU64(r)
			if err != nil {
				return nil, fmt.Errorf("read record block %d start: %w", i, err)
			}
			end, err := readU64(r)
			if err != nil {
				return nil, fmt.Errorf("read record block %d end: %w", i, err)
			}
			rec.Blocks[i] = CompressionBlock{Start: start, End: end}
		}
	}
	if rec.Encrypted, err = readBool(r); err != nil {
		return nil, fmt.Errorf("read record encrypted flag: %w", err)
	}
	blockSize, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read record compression block size: %w", err)
	}
	rec.CompressionBlockSize = blockSize

	if variant == VariantConanExiles {
		// An extra unknown trailing u32 follows; non-zero values are surprising
		// but not fatal, so only skip them.
		if _, err := readU32(r); err != nil {
			return nil, fmt.Errorf("read conan exiles trailer: %w", err)
		}
	}

	return rec, validateRecordCompressionMethod(rec, 3)
}

// synthesizeWholeRecordBlock fills the implicit single compression block,
// spanning [0, size) of the payload, for compressed pre-v3 records, which
// predate an on-disk block list entirely. An uncompressed record gets no
// block and must have equal size and uncompressed size.
func synthesizeWholeRecordBlock(rec *Record) error {
	if rec.CompressionMethod == CompressionNone {
		if rec.Size != rec.UncompressedSize {
			return fmt.Errorf("%w: uncompressed record size mismatch", ErrInvalidRecord)
		}
		return nil
	}
	rec.Blocks = []CompressionBlock{{Start: 0, End: rec.Size}}
	return nil
}

func validateRecordCompressionMethod(rec *Record, version int) error {
	switch rec.CompressionMethod {
	case CompressionNone, CompressionZlib, CompressionBiasMemory, CompressionBiasSpeed:
		return nil
	default:
		if rec.CompressionIndexed {
			return nil
		}
		return fmt.Errorf("%w: unknown compression method %d at version %d", ErrInvalidRecord, rec.CompressionMethod, version)
	}
}

// encodeRecordV1 through encodeRecordV3 emit a record header: the inline
// data-record copy and the index copy share this layout except for the
// leading offset field, which the inline copy always writes as zero (the
// real offset lives only in the index), per
// original_source/src/record.rs's write_v1/v2/v3(_inline) split.
func encodeRecordV1(w io.Writer, rec *Record, inline bool) error {
	if err := writeU64(w, recordWriteOffset(rec, inline)); err != nil {
		return err
	}
	if err := writeU64(w, rec.Size); err != nil {
		return err
	}
	if err := writeU64(w, rec.UncompressedSize); err != nil {
		return err
	}
	if err := writeU32(w, uint32(rec.CompressionMethod)); err != nil {
		return err
	}
	if err := writeU64(w, rec.Timestamp); err != nil {
		return err
	}
	_, err := w.Write(rec.SHA1[:])
	return err
}

func encodeRecordV2(w io.Writer, rec *Record, inline bool) error {
	if err := writeU64(w, recordWriteOffset(rec, inline)); err != nil {
		return err
	}
	if err := writeU64(w, rec.Size); err != nil {
		return err
	}
	if err := writeU64(w, rec.UncompressedSize); err != nil {
		return err
	}
	if err := writeU32(w, uint32(rec.CompressionMethod)); err != nil {
		return err
	}
	_, err := w.Write(rec.SHA1[:])
	return err
}

func encodeRecordV3(w io.Writer, rec *Record, inline bool) error {
	if err := writeU64(w, recordWriteOffset(rec, inline)); err != nil {
		return err
	}
	if err := writeU64(w, rec.Size); err != nil {
		return err
	}
	if err := writeU64(w, rec.UncompressedSize); err != nil {
		return err
	}
	if err := writeU32(w, uint32(rec.CompressionMethod)); err != nil {
		return err
	}
	if _, err := w.Write(rec.SHA1[:]); err != nil {
		return err
	}
	if rec.CompressionMethod != CompressionNone {
		if err := writeU32(w, uint32(len(rec.Blocks))); err != nil { //nolint:gosec // block counts are small
			return err
		}
		for _, b := range rec.Blocks {
			if err := writeU64(w, b.Start); err != nil {
				return err
			}
			if err := writeU64(w, b.End); err != nil {
				return err
			}
		}
	}
	if err := writeBool(w, rec.Encrypted); err != nil {
		return err
	}
	return writeU32(w, rec.CompressionBlockSize)
}

func recordWriteOffset(rec *Record, inline bool) uint64 {
	if inline {
		return 0
	}
	return rec.Offset
}

// EncodedRecord bit layout constants, ported 1:1 from
// original_source/src/record.rs: decode_entry (§3 "EncodedRecord bit layout").
const (
	encBlockSizeShift  = 0
	encBlockSizeBits   = 6
	encBlockCountShift = 6
	encBlockCountBits  = 16
	encEncryptedBit    = 22
	encMethodShift     = 23
	encMethodBits      = 6
	encSize32Bit       = 29
	encUSize32Bit      = 30
	encOffset32Bit     = 31

	aesBlockSize = 16
)

func bitfield(v uint32, shift, bits uint) uint32 {
	mask := uint32(1)<<bits - 1
	return (v >> shift) & mask
}

func bitSet(v uint32, bit uint) bool {
	return v&(1<<bit) != 0
}

// decodeEncodedRecord decodes one v>=10 bit-packed EncodedRecord from r,
// whether r reads the index's encoded-entry blob or a record's inline
// header. The compression method index is left unresolved
// (CompressionIndexed) for the caller to look up in the footer's name
// table, and block offsets are payload-relative.
func decodeEncodedRecord(r io.Reader) (*Record, error) {
	header, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read encoded record header: %w", err)
	}

	rec := &Record{}
	blockSizeSelector := bitfield(header, encBlockSizeShift, encBlockSizeBits)
	rec.CompressionBlockSize = blockSizeSelector << 11
	blockCount := bitfield(header, encBlockCountShift, encBlockCountBits)
	rec.Encrypted = bitSet(header, encEncryptedBit)
	methodIdx := bitfield(header, encMethodShift, encMethodBits)
	rec.CompressionMethod = CompressionMethod(methodIdx) //nolint:gosec // resolved against name table by caller
	rec.CompressionIndexed = true

	size32 := bitSet(header, encSize32Bit)
	usize32 := bitSet(header, encUSize32Bit)
	offset32 := bitSet(header, encOffset32Bit)

	if offset32 {
		v, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read encoded record offset: %w", err)
		}
		rec.Offset = uint64(v)
	} else {
		if rec.Offset, err = readU64(r); err != nil {
			return nil, fmt.Errorf("read encoded record offset: %w", err)
		}
	}

	if usize32 {
		v, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read encoded record uncompressed size: %w", err)
		}
		rec.UncompressedSize = uint64(v)
	} else {
		if rec.UncompressedSize, err = readU64(r); err != nil {
			return nil, fmt.Errorf("read encoded record uncompressed size: %w", err)
		}
	}

	if rec.CompressionMethod == CompressionNone {
		rec.Size = rec.UncompressedSize
	} else if size32 {
		v, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read encoded record size: %w", err)
		}
		rec.Size = uint64(v)
	} else {
		if rec.Size, err = readU64(r); err != nil {
			return nil, fmt.Errorf("read encoded record size: %w", err)
		}
	}

	if rec.CompressionMethod == CompressionNone {
		return rec, nil
	}

	if blockCount == 1 && !rec.Encrypted {
		rec.Blocks = []CompressionBlock{{Start: 0, End: rec.Size}}
		return rec, nil
	}

	rec.Blocks = make([]CompressionBlock, blockCount)
	var cursor uint64
	for i := range rec.Blocks {
		blockSize, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read encoded record block %d size: %w", i, err)
		}
		start := cursor
		end := start + uint64(blockSize)
		if rec.Encrypted {
			end = alignUp(end, aesBlockSize)
		}
		rec.Blocks[i] = CompressionBlock{Start: start, End: end}
		cursor = end
	}
	return rec, nil
}

func alignUp(v uint64, align uint64) uint64 {
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}
