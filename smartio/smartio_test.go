package smartio

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func roundTrip(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s): %v", name, err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(got)
}

func TestRoundTrip(t *testing.T) {
	content := "line one\nline two\n"
	for _, name := range []string{"plain.txt", "data.txt.gz", "data.txt.zst", "data.txt.xz"} {
		t.Run(name, func(t *testing.T) {
			if got := roundTrip(t, name, content); got != content {
				t.Errorf("got %q, want %q", got, content)
			}
		})
	}
}

func TestCompressedIsNotPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gz")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "hello hello hello")
	w.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "hello") {
		t.Error("expected gzip framing on disk, found plaintext")
	}
}

func TestCreateBzip2Unsupported(t *testing.T) {
	if _, err := Create(filepath.Join(t.TempDir(), "out.bz2")); err == nil {
		t.Error("expected error for bzip2 writing")
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.gz")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.txt.gz")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "a\nb\nc\n")
	w.Close()

	var lines []string
	err = ReadLines(path, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 || lines[0] != "a" || lines[2] != "c" {
		t.Errorf("unexpected lines: %v", lines)
	}
}
