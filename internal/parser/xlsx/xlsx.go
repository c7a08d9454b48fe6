// Package xlsx reads one worksheet of an Excel workbook into a
// dataset.Table. The first row is the header.
package xlsx

import (
	"context"
	"fmt"
	"io"

	"clinprep/internal/config"
	"clinprep/internal/dataset"

	"github.com/xuri/excelize/v2"
)

// Options configures the reader.
type Options struct {
	// Sheet names the worksheet. Empty means the first sheet.
	Sheet string

	// TrimSpace trims Text cells.
	TrimSpace bool

	// Missing holds the tokens read as absent. Nil means the defaults.
	Missing dataset.MissingSet
}

// OptionsFrom reads sheet, trim_space (default true) and missing_tokens.
func OptionsFrom(o config.Options) Options {
	return Options{
		Sheet:     o.String("sheet", ""),
		TrimSpace: o.Bool("trim_space", true),
		Missing:   dataset.NewMissingSet(o.StringSlice("missing_tokens")),
	}
}

// Parser reads workbooks.
type Parser struct{ opt Options }

// NewParser constructs a Parser.
func NewParser(opt Options) *Parser {
	if opt.Missing == nil {
		opt.Missing = dataset.NewMissingSet(nil)
	}
	return &Parser{opt: opt}
}

// Parse loads the workbook from r. Cells are read raw (unformatted) so
// numbers keep full precision. Fully blank rows are skipped; rows shorter
// than the header are padded with Missing.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*dataset.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := p.opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return dataset.New(0), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header := raw[0]
	rows := make([][]dataset.Value, 0, len(raw)-1)
	for i, rec := range raw[1:] {
		if blank(rec) {
			continue
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("sheet %q row %d: %d cells, header has %d", sheet, i+2, len(rec), len(header))
		}
		row := make([]dataset.Value, len(header))
		for j := range row {
			if j < len(rec) {
				row[j] = p.opt.Missing.Parse(rec[j], p.opt.TrimSpace)
			}
		}
		rows = append(rows, row)
	}
	return dataset.FromRows(header, rows)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if c != "" {
			return false
		}
	}
	return true
}
