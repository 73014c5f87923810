// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Magic is the footer magic number: on-disk bytes E1 12 6F 5A, decoded
// little-endian, per §6 and original_source/src/pak.rs's PAK_MAGIC.
const Magic uint32 = 0x5A6F12E1

const compressionMethodNameSize = 32

// footerSize returns the exact byte size of a version's footer, per the
// table in §6 "Pak file format".
func footerSize(version int) (int64, bool) {
	switch {
	case version >= 1 && version <= 3:
		return 44, true
	case version >= 4 && version <= 6:
		return 45, true
	case version == 7:
		return 65, true
	case version == 8:
		return 193, true
	case version == 9:
		return 226, true
	case version == 10 || version == 11:
		return 225, true
	default:
		return 0, false
	}
}

// compressionMethodCount returns how many 32-byte compression-method name
// slots a version's footer carries (0 before v8). Entry 0 of the resulting
// table is always implicitly "None" per §6.
func compressionMethodCount(version int) int {
	switch {
	case version == 8:
		return 4
	case version >= 9:
		return 5
	default:
		return 0
	}
}

// footerReservedPadding accounts for undocumented trailing bytes the v>=7
// footer carries beyond its documented fields; reserved, not interpreted,
// the same policy §4.2 applies to v>=4 record prefix bytes.
const footerReservedPadding = 4

// footer is the decoded v-dispatched trailer pointing at the index.
type footer struct {
	Version            int
	Variant            Variant
	EncryptionKeyGUID  uuid.UUID
	Encrypted          bool
	IndexOffset        uint64
	IndexSize          uint64
	IndexSHA1          [20]byte
	CompressionMethods []string
	FrozenIndex        bool
}

// decodeFooter locates and decodes the footer by probing candidate versions
// from 11 down to 1 (or exactly forceVersion when non-zero), per §4.4.
func decodeFooter(r io.ReaderAt, size int64, variant Variant, forceVersion int, ignoreMagic bool) (*footer, error) {
	candidates := []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	if forceVersion != 0 {
		candidates = []int{forceVersion}
	}

	var lastErr error
	for _, v := range candidates {
		fsize, ok := footerSize(v)
		if !ok || fsize > size {
			continue
		}

		buf := make([]byte, fsize)
		if _, err := r.ReadAt(buf, size-fsize); err != nil {
			lastErr = err
			continue
		}

		f, err := decodeFooterBytes(buf, v, variant, ignoreMagic)
		if err != nil {
			lastErr = err
			continue
		}
		if f.Version != v && forceVersion == 0 {
			continue
		}
		return f, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMagic, lastErr)
	}
	return nil, ErrInvalidMagic
}

func decodeFooterBytes(buf []byte, version int, variant Variant, ignoreMagic bool) (*footer, error) {
	r := bytes.NewReader(buf)
	f := &footer{Version: version, Variant: variant}

	if version >= 7 {
		if _, err := io.ReadFull(r, f.EncryptionKeyGUID[:]); err != nil {
			return nil, err
		}
	}
	if version >= 4 {
		encrypted, err := readBool(r)
		if err != nil {
			return nil, err
		}
		f.Encrypted = encrypted
	}

	magic, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if magic != Magic && !ignoreMagic {
		return nil, ErrInvalidMagic
	}

	onDiskVersion, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if int(onDiskVersion) != version && !ignoreMagic {
		return nil, fmt.Errorf("%w: footer declares version %d, probed %d", ErrInvalidMagic, onDiskVersion, version)
	}
	f.Version = int(onDiskVersion) //nolint:gosec // pak versions are small

	if f.IndexOffset, err = readU64(r); err != nil {
		return nil, err
	}
	if f.IndexSize, err = readU64(r); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, f.IndexSHA1[:]); err != nil {
		return nil, err
	}

	if n := compressionMethodCount(version); n > 0 {
		f.CompressionMethods = make([]string, n)
		for i := 0; i < n; i++ {
			name := make([]byte, compressionMethodNameSize)
			if _, err := io.ReadFull(r, name); err != nil {
				return nil, err
			}
			f.CompressionMethods[i] = string(bytes.TrimRight(name, "\x00"))
		}
	}

	if version == 9 {
		frozen, err := readBool(r)
		if err != nil {
			return nil, err
		}
		f.FrozenIndex = frozen
	}

	if version >= 7 {
		pad := make([]byte, footerReservedPadding)
		if _, err := io.ReadFull(r, pad); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// encodeFooter writes a v1-v3 footer, the only form the encoder emits, per
// §1 write-support scope.
func encodeFooter(w io.Writer, version int, indexOffset, indexSize uint64, indexSHA1 [20]byte) error {
	if version < 1 || version > 3 {
		return fmt.Errorf("%w: write support is limited to v1-v3", ErrUnsupportedVersion)
	}
	if err := writeU32(w, Magic); err != nil {
		return err
	}
	if err := writeU32(w, uint32(version)); err != nil { //nolint:gosec // version is 1-3
		return err
	}
	if err := writeU64(w, indexOffset); err != nil {
		return err
	}
	if err := writeU64(w, indexSize); err != nil {
		return err
	}
	_, err := w.Write(indexSHA1[:])
	return err
}
