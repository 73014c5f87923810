// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"
)

// Encoding selects how a sized string's bytes are interpreted when its
// length prefix is non-negative (ASCII/UTF-16LE is always implied by sign).
type Encoding uint8

// Recognized string encodings for non-negative sized-string lengths.
const (
	EncodingASCII Encoding = iota
	EncodingLatin1
	EncodingUTF8
)

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readI32(r io.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err //nolint:gosec // bit-identical reinterpretation
}

func readI64(r io.Reader) (int64, error) {
	v, err := readU64(r)
	return int64(v), err //nolint:gosec // bit-identical reinterpretation
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeBool(w io.Writer, v bool) error {
	var b [1]byte
	if v {
		b[0] = 1
	}
	_, err := w.Write(b[:])
	return err
}

// readSizedString reads a length-prefixed pak string per §4.1: a non-negative
// i32 length means ASCII/Latin1/UTF8 bytes plus a trailing NUL; a negative
// length means 2*|L| bytes of UTF-16LE plus a trailing 16-bit NUL.
func readSizedString(r io.Reader, enc Encoding) (string, error) {
	length, err := readI32(r)
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}

	if length == 0 {
		return "", nil
	}

	if length > 0 {
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("read string bytes: %w", err)
		}
		if len(buf) == 0 || buf[len(buf)-1] != 0 {
			return "", fmt.Errorf("%w: sized string missing NUL terminator", ErrInvalidRecord)
		}
		raw := buf[:len(buf)-1]
		switch enc {
		case EncodingUTF8, EncodingASCII:
			return string(raw), nil
		default: // Latin1
			runes := make([]rune, len(raw))
			for i, b := range raw {
				runes[i] = rune(b)
			}
			return string(runes), nil
		}
	}

	n := -int(length)
	buf := make([]uint16, n)
	for i := 0; i < n; i++ {
		v, err := readU32FromU16(r)
		if err != nil {
			return "", fmt.Errorf("read utf16 string: %w", err)
		}
		buf[i] = v
	}
	if n == 0 || buf[n-1] != 0 {
		return "", fmt.Errorf("%w: utf16 sized string missing NUL terminator", ErrInvalidRecord)
	}
	return string(utf16.Decode(buf[:n-1])), nil
}

func readU32FromU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// writeSizedString writes s as an ASCII sized string with a trailing NUL,
// the only form the encoder ever emits, per §4.1.
func writeSizedString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))+1); err != nil { //nolint:gosec // pak strings are short
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	var nul [1]byte
	_, err := w.Write(nul[:])
	return err
}
