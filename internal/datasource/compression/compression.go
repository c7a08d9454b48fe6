// Package compression maps compression names to stream codecs. It is shared
// by sources (reading) and file sinks (writing).
package compression

import (
	"compress/bzip2"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	None  = "none"
	Gzip  = "gzip"
	Zstd  = "zstd"
	LZ4   = "lz4"
	Bzip2 = "bzip2"
)

// Kinds lists the accepted compression names.
var Kinds = []string{None, Gzip, Zstd, LZ4, Bzip2}

// Detect infers the compression from the last extension of name. Unknown
// extensions mean None.
func Detect(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	case ".bz2", ".bzip2":
		return Bzip2
	}
	return None
}

// Trim strips a recognised compression extension so the remaining name can
// be used for format detection ("a.csv.gz" -> "a.csv").
func Trim(name string) string {
	if Detect(name) == None {
		return name
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// NewReader wraps rc with the decoder for kind. The returned ReadCloser closes
// both the decoder and rc.
func NewReader(kind string, rc io.ReadCloser) (io.ReadCloser, error) {
	switch kind {
	case "", None:
		return rc, nil
	case Gzip:
		gr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: gr, closers: []io.Closer{gr, rc}}, nil
	case Zstd:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), rc}}, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(rc), closers: []io.Closer{rc}}, nil
	case Bzip2:
		return &readCloser{Reader: bzip2.NewReader(rc), closers: []io.Closer{rc}}, nil
	}
	return nil, fmt.Errorf("compression type not supported: %s", kind)
}

// NewWriter wraps w with the encoder for kind. Closing the result flushes the
// encoder and then closes w. bzip2 is read-only.
func NewWriter(kind string, w io.WriteCloser) (io.WriteCloser, error) {
	switch kind {
	case "", None:
		return w, nil
	case Gzip:
		gw := gzip.NewWriter(w)
		return &writeCloser{Writer: gw, closers: []io.Closer{gw, w}}, nil
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, w}}, nil
	case LZ4:
		lw := lz4.NewWriter(w)
		return &writeCloser{Writer: lw, closers: []io.Closer{lw, w}}, nil
	}
	return nil, fmt.Errorf("compression type not supported for writing: %s", kind)
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error { return closeAll(r.closers) }

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error { return closeAll(w.closers) }

// closeAll closes in order and reports the first error.
func closeAll(cs []io.Closer) error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
