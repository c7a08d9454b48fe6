// Package parser turns a decompressed input stream into a dataset.Table.
package parser

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"clinprep/internal/config"
	"clinprep/internal/dataset"
	"clinprep/internal/datasource/compression"
	"clinprep/internal/parser/csv"
	"clinprep/internal/parser/xlsx"

	"github.com/rs/zerolog"
)

// Parser reads a whole table from r.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (*dataset.Table, error)
}

// Kind returns cfg.Kind, or infers it from the input name with any
// compression suffix removed.
func Kind(cfg config.Parser, name string) string {
	if cfg.Kind != "" {
		return cfg.Kind
	}
	switch strings.ToLower(path.Ext(compression.Trim(name))) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".csv", ".tsv", ".txt":
		return "csv"
	}
	return ""
}

// New builds the parser for cfg. name is the input object name and is only
// used when cfg.Kind is empty.
func New(cfg config.Parser, name string, log zerolog.Logger) (Parser, error) {
	switch k := Kind(cfg, name); k {
	case "csv":
		opt := csv.OptionsFrom(cfg.Options)
		if strings.HasSuffix(strings.ToLower(compression.Trim(name)), ".tsv") && cfg.Options.String("comma", "") == "" {
			opt.Comma = '\t'
		}
		opt.Logger = log
		return csv.NewParser(opt), nil
	case "xlsx":
		return xlsx.NewParser(xlsx.OptionsFrom(cfg.Options)), nil
	case "":
		return nil, fmt.Errorf("cannot infer parser kind from %q; set parser.kind", name)
	default:
		return nil, fmt.Errorf("unsupported parser kind %q", k)
	}
}
