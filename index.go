// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// indexPointer locates a secondary index blob (path-hash or full-directory)
// referenced from the primary v>=10 index, per §4.3.
type indexPointer struct {
	Offset uint64
	Size   uint64
	Hash   [20]byte
}

func readIndexPointer(r io.Reader) (*indexPointer, error) {
	present, err := readBool(r)
	if err != nil {
		return nil, fmt.Errorf("read index pointer presence: %w", err)
	}
	if !present {
		return nil, nil
	}
	p := &indexPointer{}
	if p.Offset, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read index pointer offset: %w", err)
	}
	if p.Size, err = readU64(r); err != nil {
		return nil, fmt.Errorf("read index pointer size: %w", err)
	}
	if _, err := io.ReadFull(r, p.Hash[:]); err != nil {
		return nil, fmt.Errorf("read index pointer hash: %w", err)
	}
	return p, nil
}

// namedRecord pairs a decoded Record with its archive path, the codec's
// common currency between the legacy and modern index shapes.
type namedRecord struct {
	Path   string
	Record *Record
}

// decodeLegacyIndex decodes the v<10 index: mount point, record count, then
// that many (filename, Record) pairs, per §4.3 "Legacy".
func decodeLegacyIndex(r io.Reader, version int, variant Variant) (mountPoint string, records []namedRecord, err error) {
	mountPoint, err = readSizedString(r, EncodingASCII)
	if err != nil {
		return "", nil, fmt.Errorf("read mount point: %w", err)
	}

	count, err := readU32(r)
	if err != nil {
		return "", nil, fmt.Errorf("read record count: %w", err)
	}

	records = make([]namedRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := readSizedString(r, EncodingASCII)
		if err != nil {
			return "", nil, fmt.Errorf("read record %d filename: %w", i, err)
		}

		rec, err := decodeLegacyRecord(r, version, variant)
		if err != nil {
			return "", nil, fmt.Errorf("read record %d %q: %w", i, name, err)
		}

		records = append(records, namedRecord{Path: name, Record: rec})
	}

	return mountPoint, records, nil
}

// decodeLegacyRecord dispatches a single legacy index record by version,
// per §9 "Version dispatch" (v5/v6 parsed as v7-relative, §9 Open
// Questions — the change may really have landed at v5 or v6).
func decodeLegacyRecord(r io.Reader, version int, variant Variant) (*Record, error) {
	switch {
	case version == 1:
		return decodeRecordV1(r)
	case version == 2:
		return decodeRecordV2(r)
	default:
		if variant == VariantConanExiles {
			return decodeRecordV3(r, variant)
		}
		return decodeRecordV3(r, VariantStandard)
	}
}

// encodeLegacyIndex writes the v<=3 legacy index, the only format the
// encoder ever emits, per §1 write-support scope: mount point, record
// count, then each (filename, record-with-real-offset) pair.
func encodeLegacyIndex(w io.Writer, version int, mountPoint string, records []namedRecord) error {
	if version < 1 || version > 3 {
		return fmt.Errorf("%w: write support is limited to v1-v3", ErrUnsupportedVersion)
	}
	if err := writeSizedString(w, mountPoint); err != nil {
		return fmt.Errorf("write mount point: %w", err)
	}
	if err := writeU32(w, uint32(len(records))); err != nil { //nolint:gosec // record counts fit uint32
		return fmt.Errorf("write record count: %w", err)
	}
	for _, nr := range records {
		if err := writeSizedString(w, nr.Path); err != nil {
			return fmt.Errorf("write record filename: %w", err)
		}
		var err error
		switch version {
		case 1:
			err = encodeRecordV1(w, nr.Record, false)
		case 2:
			err = encodeRecordV2(w, nr.Record, false)
		default:
			err = encodeRecordV3(w, nr.Record, false)
		}
		if err != nil {
			return fmt.Errorf("write record %q: %w", nr.Path, err)
		}
	}
	return nil
}

// fullDirectoryIndex is the v>=10 `dir -> basename -> blob offset` map
// described in §4.3 and the GLOSSARY.
type fullDirectoryIndex map[string]map[string]uint32

func decodeFullDirectoryIndex(r io.Reader) (fullDirectoryIndex, error) {
	dirCount, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read fdi directory count: %w", err)
	}

	fdi := make(fullDirectoryIndex, dirCount)
	for i := uint32(0); i < dirCount; i++ {
		dir, err := readSizedString(r, EncodingASCII)
		if err != nil {
			return nil, fmt.Errorf("read fdi directory %d name: %w", i, err)
		}

		fileCount, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read fdi directory %d file count: %w", i, err)
		}

		files := make(map[string]uint32, fileCount)
		for j := uint32(0); j < fileCount; j++ {
			base, err := readSizedString(r, EncodingASCII)
			if err != nil {
				return nil, fmt.Errorf("read fdi directory %d file %d name: %w", i, j, err)
			}
			blobOffset, err := readU32(r)
			if err != nil {
				return nil, fmt.Errorf("read fdi directory %d file %d offset: %w", i, j, err)
			}
			files[base] = blobOffset
		}

		fdi[dir] = files
	}

	return fdi, nil
}

// flattenFullDirectoryIndex rebuilds "dir/basename" archive paths from the
// FDI's nested map, stripping the NUL terminator already removed by
// readSizedString and the leading and trailing "/" from the directory
// component, per §4.3's final sentence.
func flattenFullDirectoryIndex(fdi fullDirectoryIndex) []struct {
	Path       string
	BlobOffset uint32
} {
	out := make([]struct {
		Path       string
		BlobOffset uint32
	}, 0)

	for dir, files := range fdi {
		dir = strings.TrimSuffix(strings.TrimPrefix(dir, "/"), "/")
		for base, off := range files {
			path := base
			if dir != "" {
				path = dir + "/" + base
			}
			out = append(out, struct {
				Path       string
				BlobOffset uint32
			}{Path: path, BlobOffset: off})
		}
	}

	return out
}

// decodeModernIndex decodes the v>=10 index per §4.3 "Modern (v>=10)": the
// decoder prefers the full directory index and rejects an archive carrying
// only the path-hash index. The path-hash and full-directory index blobs
// are separate buffers elsewhere in the file (conventionally just before
// the primary index); their pointers carry absolute file offsets, so they
// are fetched through ra rather than sliced out of the primary index bytes
// read from r.
func decodeModernIndex(r io.Reader, ra io.ReaderAt, fileSize int64) (mountPoint string, pathHashSeed uint64, records []namedRecord, err error) {
	mountPoint, err = readSizedString(r, EncodingASCII)
	if err != nil {
		return "", 0, nil, fmt.Errorf("read mount point: %w", err)
	}

	if _, err = readU32(r); err != nil { // entry_count; recomputed from the FDI flatten below
		return "", 0, nil, fmt.Errorf("read entry count: %w", err)
	}

	if pathHashSeed, err = readU64(r); err != nil {
		return "", 0, nil, fmt.Errorf("read path hash seed: %w", err)
	}

	pathHashPtr, err := readIndexPointer(r)
	if err != nil {
		return "", 0, nil, fmt.Errorf("read path hash index pointer: %w", err)
	}

	fdiPtr, err := readIndexPointer(r)
	if err != nil {
		return "", 0, nil, fmt.Errorf("read full directory index pointer: %w", err)
	}

	if fdiPtr == nil {
		if pathHashPtr != nil {
			return "", 0, nil, fmt.Errorf("%w: path hash index only", ErrUnsupportedFeature)
		}
		return "", 0, nil, fmt.Errorf("%w: no directory index present", ErrUnsupportedFeature)
	}

	if int64(fdiPtr.Offset)+int64(fdiPtr.Size) > fileSize { //nolint:gosec // fileSize is non-negative
		return "", 0, nil, fmt.Errorf("%w: full directory index out of bounds", ErrInvalidRecord)
	}
	fdiBuf := make([]byte, fdiPtr.Size)
	if _, err := ra.ReadAt(fdiBuf, int64(fdiPtr.Offset)); err != nil { //nolint:gosec // bounds checked above
		return "", 0, nil, fmt.Errorf("read full directory index: %w", err)
	}
	fdi, err := decodeFullDirectoryIndex(bytes.NewReader(fdiBuf))
	if err != nil {
		return "", 0, nil, fmt.Errorf("decode full directory index: %w", err)
	}

	blobSize, err := readU32(r)
	if err != nil {
		return "", 0, nil, fmt.Errorf("read encoded entry blob size: %w", err)
	}
	blob := make([]byte, blobSize)
	if _, err := io.ReadFull(r, blob); err != nil {
		return "", 0, nil, fmt.Errorf("read encoded entry blob: %w", err)
	}

	entries := flattenFullDirectoryIndex(fdi)
	records = make([]namedRecord, 0, len(entries))
	for _, e := range entries {
		if int64(e.BlobOffset) >= int64(len(blob)) {
			return "", 0, nil, fmt.Errorf("%w: encoded entry offset out of bounds for %q", ErrInvalidRecord, e.Path)
		}
		rec, err := decodeEncodedRecord(bytes.NewReader(blob[e.BlobOffset:]))
		if err != nil {
			return "", 0, nil, fmt.Errorf("decode encoded record %q: %w", e.Path, err)
		}
		rec.Filename = e.Path
		records = append(records, namedRecord{Path: e.Path, Record: rec})
	}

	// Trailing legacy record count, usually zero; the FDI already covers
	// every entry so this decoder does not merge a secondary legacy list.
	if _, err := readU32(r); err != nil && err != io.EOF {
		return "", 0, nil, fmt.Errorf("read trailing legacy count: %w", err)
	}

	return mountPoint, pathHashSeed, records, nil
}
