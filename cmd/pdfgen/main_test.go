package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-size", "letter-landscape", "-title", "Report", "notes.html"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.format != "html" {
		t.Fatalf("format = %q", opts.format)
	}
	if opts.output != "notes.pdf" {
		t.Fatalf("output = %q", opts.output)
	}
	if opts.size.Width != 792 || opts.size.Height != 612 {
		t.Fatalf("size = %+v", opts.size)
	}

	if _, err := parseFlags([]string{"-size", "B9", "a.md"}); err == nil {
		t.Fatalf("expected unknown paper size error")
	}
	if _, err := parseFlags([]string{"-format", "rtf", "a.md"}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestRunWritesPDF(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(in, []byte("# Hello\n\nSome text.\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	opts, err := parseFlags([]string{"-compress=false", "-title", "Greeting", in})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if err := run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	out, err := os.ReadFile(filepath.Join(dir, "doc.pdf"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-1.7\n")) {
		t.Fatalf("missing header: %q", out[:16])
	}
	for _, want := range []string{"(Hello) Tj", "/Title (Greeting)", "%%EOF"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Fatalf("output lacks %q", want)
		}
	}
}
