// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func buildTestPak(t *testing.T, files map[string][]byte, opts PackOptions) *Pak {
	t.Helper()
	dir := t.TempDir()
	sources := make([]Source, 0, len(files))
	for name, content := range files {
		path := writeTempFile(t, dir, filepath.Base(name), content)
		sources = append(sources, Source{HostPath: path, ArchivePath: name})
	}
	out := filepath.Join(dir, "test.pak")
	if _, err := PackFile(context.Background(), out, sources, opts); err != nil {
		t.Fatalf("PackFile: %v", err)
	}
	p, err := Open(out)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestCheckDefaultsToCompressedHashOnly(t *testing.T) {
	p := buildTestPak(t, map[string][]byte{"a.txt": []byte("alpha")}, PackOptions{Version: 3})

	report, err := p.Check(context.Background(), CheckOptions{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Failed != 0 {
		t.Fatalf("got %d failures", report.Failed)
	}
	if len(report.Results) != 1 || report.Results[0].Path != "a.txt" {
		t.Fatalf("got %+v", report.Results)
	}
}

func TestCheckDetectsCorruptedPayload(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "data.bin", []byte("some payload bytes for hashing"))
	out := filepath.Join(dir, "out.pak")
	if _, err := PackFile(context.Background(), out, []Source{{HostPath: src}}, PackOptions{Version: 3}); err != nil {
		t.Fatalf("PackFile: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	// Flip the first payload byte: the only record sits at offset 0, right
	// after its inline v3 header (well before the footer/index).
	raw[v3RecordHeaderSize] ^= 0xff
	if err := os.WriteFile(out, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Open(out)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = p.Close() }()

	report, err := p.Check(context.Background(), CheckOptions{CompressedHash: true})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Failed == 0 {
		t.Fatalf("expected a corrupted record to be detected")
	}
	found := false
	for _, r := range report.Results {
		if r.Err == nil {
			continue
		}
		found = true
		var mismatch *HashMismatch
		if !errors.As(r.Err, &mismatch) {
			t.Fatalf("got error %v, want *HashMismatch", r.Err)
		}
	}
	if !found {
		t.Fatal("expected at least one failed result")
	}
}

func TestCheckRestrictsToRequestedPaths(t *testing.T) {
	p := buildTestPak(t, map[string][]byte{"a.txt": []byte("a"), "b.txt": []byte("b")}, PackOptions{Version: 3})

	report, err := p.Check(context.Background(), CheckOptions{Paths: []string{"a.txt"}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Path != "a.txt" {
		t.Fatalf("got %+v", report.Results)
	}
}

func TestCheckUnknownPathFails(t *testing.T) {
	p := buildTestPak(t, map[string][]byte{"a.txt": []byte("a")}, PackOptions{Version: 3})
	if _, err := p.Check(context.Background(), CheckOptions{Paths: []string{"missing.txt"}}); err == nil {
		t.Fatal("expected an error for an unknown path")
	}
}
