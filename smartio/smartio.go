package smartio

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Open opens the named file for reading, transparently decompressing it
// based on its extension (.gz, .zst, .xz, .bz2). Unknown extensions are
// read as-is. The returned closer closes both the decompressor and the
// underlying file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("smartio: gzip reader for %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("smartio: zstd reader for %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{closerFunc(func() error { zr.Close(); return nil }), f}}, nil
	case ".xz":
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("smartio: xz reader for %s: %w", path, err)
		}
		return &readCloser{Reader: xr, closers: []io.Closer{f}}, nil
	case ".bz2":
		return &readCloser{Reader: bzip2.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// Create creates the named file for writing, transparently compressing it
// based on its extension (.gz, .zst, .xz). Unknown extensions are written
// as-is. Writing .bz2 is not supported and returns an error.
func Create(path string) (io.WriteCloser, error) {
	if ext(path) == ".bz2" {
		return nil, fmt.Errorf("smartio: bzip2 writing is not supported (%s)", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	switch ext(path) {
	case ".gz":
		zw := gzip.NewWriter(f)
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("smartio: zstd writer for %s: %w", path, err)
		}
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case ".xz":
		xw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("smartio: xz writer for %s: %w", path, err)
		}
		return &writeCloser{Writer: xw, closers: []io.Closer{xw, f}}, nil
	default:
		return f, nil
	}
}

// ReadLines streams the file line by line through fn, decompressing as
// needed. Iteration stops at the first error from fn.
func ReadLines(path string, fn func(line string) error) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ext returns the lowercased final extension of path.
func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// readCloser closes a chain of decompressor and file in order.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var firstErr error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// writeCloser closes the compressor before the file so buffered data is
// flushed.
type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (wc *writeCloser) Close() error {
	var firstErr error
	for _, c := range wc.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
