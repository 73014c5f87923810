// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestUnpackWritesFilesMatchingOriginalContent(t *testing.T) {
	packDir := t.TempDir()
	files := map[string][]byte{
		"a.txt":        []byte("alpha content"),
		"sub/b.txt":    []byte("beta content, a little longer"),
		"sub/deep/c.txt": bytes.Repeat([]byte("gamma "), 2000),
	}

	sources := make([]Source, 0, len(files))
	for name, content := range files {
		hostPath := filepath.Join(packDir, filepath.Base(name))
		if err := os.WriteFile(hostPath, content, 0o644); err != nil {
			t.Fatal(err)
		}
		sources = append(sources, Source{HostPath: hostPath, ArchivePath: name, Zlib: len(content) > 100})
	}

	out := filepath.Join(packDir, "out.pak")
	if _, err := PackFile(context.Background(), out, sources, PackOptions{Version: 3, CompressionBlockSize: 512}); err != nil {
		t.Fatalf("PackFile: %v", err)
	}

	p, err := Open(out)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = p.Close() }()

	unpackDir := t.TempDir()
	report, err := p.Unpack(context.Background(), unpackDir, UnpackOptions{})
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(report.Results) != len(files) {
		t.Fatalf("got %d results, want %d", len(report.Results), len(files))
	}

	for name, want := range files {
		got, err := os.ReadFile(filepath.Join(unpackDir, filepath.FromSlash(name)))
		if err != nil {
			t.Fatalf("read extracted %s: %v", name, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("content mismatch for %s: got %d bytes, want %d", name, len(got), len(want))
		}
	}
}

func TestUnpackRestrictsToRequestedPaths(t *testing.T) {
	dir := t.TempDir()
	srcA := writeTempFile(t, dir, "a.txt", []byte("a"))
	srcB := writeTempFile(t, dir, "b.txt", []byte("b"))
	out := filepath.Join(dir, "out.pak")
	if _, err := PackFile(context.Background(), out, []Source{{HostPath: srcA}, {HostPath: srcB}}, PackOptions{Version: 3}); err != nil {
		t.Fatalf("PackFile: %v", err)
	}

	p, err := Open(out)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = p.Close() }()

	unpackDir := t.TempDir()
	report, err := p.Unpack(context.Background(), unpackDir, UnpackOptions{Paths: []string{"a.txt"}})
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Path != "a.txt" {
		t.Fatalf("got %+v", report.Results)
	}
	if _, err := os.Stat(filepath.Join(unpackDir, "b.txt")); !os.IsNotExist(err) {
		t.Fatalf("b.txt should not have been extracted, stat err: %v", err)
	}
}

func TestUnpackInvokesOnEntryDone(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "a.txt", []byte("hello world"))
	out := filepath.Join(dir, "out.pak")
	if _, err := PackFile(context.Background(), out, []Source{{HostPath: src}}, PackOptions{Version: 3}); err != nil {
		t.Fatalf("PackFile: %v", err)
	}

	p, err := Open(out)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = p.Close() }()

	var calls int
	unpackDir := t.TempDir()
	_, err = p.Unpack(context.Background(), unpackDir, UnpackOptions{
		OnEntryDone: func(path string, written int64, outputPath string) {
			calls++
			if path != "a.txt" || written != int64(len("hello world")) {
				t.Errorf("unexpected callback args: %q %d %q", path, written, outputPath)
			}
		},
	})
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if calls != 1 {
		t.Fatalf("got %d callback invocations, want 1", calls)
	}
}
