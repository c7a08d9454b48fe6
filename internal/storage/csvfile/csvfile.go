// Package csvfile writes prepared tables as CSV files. A .gz, .zst or .lz4
// suffix on the path selects the matching compression; a .tsv path is
// tab-separated.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"clinprep/internal/config"
	"clinprep/internal/dataset"
	"clinprep/internal/datasource/compression"
	"clinprep/internal/storage"

	"github.com/rs/zerolog"
)

// Sink writes one table to Path. The file appears only after a complete
// write; a failed write leaves no output behind.
type Sink struct {
	Path  string
	Comma rune
	log   zerolog.Logger
}

// New returns a sink for path.
func New(path string, log zerolog.Logger) (*Sink, error) {
	if path == "" {
		return nil, fmt.Errorf("csvfile: storage.file.path is required")
	}
	comma := ','
	if strings.EqualFold(filepath.Ext(compression.Trim(path)), ".tsv") {
		comma = '\t'
	}
	return &Sink{Path: path, Comma: comma, log: log}, nil
}

func init() {
	storage.RegisterSink("csv", func(cfg config.Storage, opt storage.Options) (storage.Sink, error) {
		return New(cfg.File.Path, opt.Logger)
	})
}

// Write renders t with a header row. Missing cells are empty; booleans are
// written as 1/0.
func (s *Sink) Write(ctx context.Context, t *dataset.Table) (n int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", s.Path, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	w, err := compression.NewWriter(compression.Detect(s.Path), tmp)
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	n, err = s.encode(ctx, w, t)
	if cerr := w.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", s.Path, err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return 0, fmt.Errorf("rename %s: %w", s.Path, err)
	}
	committed = true
	s.log.Debug().Str("path", s.Path).Int64("rows", n).Msg("csv written")
	return n, nil
}

func (s *Sink) encode(ctx context.Context, w io.Writer, t *dataset.Table) (int64, error) {
	cw := csv.NewWriter(w)
	if s.Comma != 0 {
		cw.Comma = s.Comma
	}
	if err := cw.Write(t.Names()); err != nil {
		return 0, err
	}
	rec := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		for j := range rec {
			rec[j] = t.ColumnAt(j).Values[i].String()
		}
		if err := cw.Write(rec); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return int64(t.NumRows()), nil
}

// Close is a no-op; Write owns the file handle.
func (s *Sink) Close() error { return nil }
