// Package xlsx writes prepared tables as a single-sheet Excel workbook using
// the excelize stream writer.
package xlsx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"clinprep/internal/config"
	"clinprep/internal/dataset"
	"clinprep/internal/storage"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used when none is configured.
const DefaultSheet = "Sheet1"

// Sink writes one table to Path.
type Sink struct {
	Path  string
	Sheet string
	log   zerolog.Logger
}

// New returns a sink for path. An empty sheet means DefaultSheet.
func New(path, sheet string, log zerolog.Logger) (*Sink, error) {
	if path == "" {
		return nil, fmt.Errorf("xlsx: storage.file.path is required")
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Sink{Path: path, Sheet: sheet, log: log}, nil
}

func init() {
	storage.RegisterSink("xlsx", func(cfg config.Storage, opt storage.Options) (storage.Sink, error) {
		return New(cfg.File.Path, cfg.File.Sheet, opt.Logger)
	})
}

// cell converts v for the stream writer; missing cells stay empty.
func cell(v dataset.Value) any {
	if v.IsMissing() {
		return nil
	}
	return v.Any()
}

// Write renders t with a header row. Nothing is left at Path on failure.
func (s *Sink) Write(ctx context.Context, t *dataset.Table) (int64, error) {
	f := excelize.NewFile()
	defer f.Close()
	if s.Sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, s.Sheet); err != nil {
			return 0, fmt.Errorf("xlsx sheet %q: %w", s.Sheet, err)
		}
	}
	sw, err := f.NewStreamWriter(s.Sheet)
	if err != nil {
		return 0, fmt.Errorf("xlsx stream: %w", err)
	}

	row := make([]any, t.NumCols())
	for j, name := range t.Names() {
		row[j] = name
	}
	if err := sw.SetRow("A1", row); err != nil {
		return 0, fmt.Errorf("xlsx header: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		row = make([]any, t.NumCols())
		for j := range row {
			row[j] = cell(t.ColumnAt(j).Values[i])
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := sw.SetRow(addr, row); err != nil {
			return 0, fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return 0, fmt.Errorf("xlsx flush: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", s.Path, err)
	}
	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("write %s: %w", s.Path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("write %s: %w", s.Path, err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("rename %s: %w", s.Path, err)
	}
	s.log.Debug().Str("path", s.Path).Str("sheet", s.Sheet).Int("rows", t.NumRows()).Msg("xlsx written")
	return int64(t.NumRows()), nil
}

// Close is a no-op; Write owns the workbook.
func (s *Sink) Close() error { return nil }
