// Package csv parses delimited exports into a dataset.Table. Cells are typed
// on the way in: missing tokens become Missing, numbers become Number and
// everything else stays Text. An optional streaming rewriter repairs known
// byte sequences before they reach encoding/csv.
package csv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"clinprep/internal/config"
	"clinprep/internal/dataset"

	"github.com/rs/zerolog"
)

// Options configures the CSV parser. Zero values are usable; see OptionsFrom
// for the config defaults.
type Options struct {
	// HasHeader indicates whether the first row holds column names. Without a
	// header columns are named col_1..col_N.
	HasHeader bool

	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims Text cells. Numbers and missing tokens are always
	// matched after trimming.
	TrimSpace bool

	// LazyQuotes relaxes quote handling in encoding/csv.
	LazyQuotes bool

	// SkipBadRows drops rows wider than the header instead of failing. Short
	// rows are always padded with Missing.
	SkipBadRows bool

	// Missing holds the tokens read as absent. Nil means the defaults.
	Missing dataset.MissingSet

	// HeaderMap renames raw header cells after BOM stripping.
	HeaderMap map[string]string

	// Replace lists byte rewrites applied to the stream, in order.
	Replace [][2]string

	Logger zerolog.Logger
}

// OptionsFrom reads parser options from a pipeline config. Keys: has_header
// (default true), comma, trim_space (default true), lazy_quotes,
// skip_bad_rows, missing_tokens, header_map, replace.
func OptionsFrom(o config.Options) Options {
	opt := Options{
		HasHeader:   o.Bool("has_header", true),
		Comma:       o.Rune("comma", ','),
		TrimSpace:   o.Bool("trim_space", true),
		LazyQuotes:  o.Bool("lazy_quotes", false),
		SkipBadRows: o.Bool("skip_bad_rows", false),
		Missing:     dataset.NewMissingSet(o.StringSlice("missing_tokens")),
		HeaderMap:   o.StringMap("header_map"),
		Logger:      zerolog.Nop(),
	}
	rep := o.StringMap("replace")
	keys := make([]string, 0, len(rep))
	for k := range rep {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opt.Replace = append(opt.Replace, [2]string{k, rep[k]})
	}
	return opt
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs but not concurrency-safe.
type Parser struct {
	opt     Options
	skipped int
}

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	if opt.Missing == nil {
		opt.Missing = dataset.NewMissingSet(nil)
	}
	return &Parser{opt: opt}
}

// Skipped reports how many rows the last Parse dropped.
func (p *Parser) Skipped() int { return p.skipped }

// skipLogLimit caps per-row skip logging.
const skipLogLimit = 400

// Parse reads all records from r. Rows keep their input order.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*dataset.Table, error) {
	p.skipped = 0
	for _, rw := range p.opt.Replace {
		r = newStreamingRewriter(r, []byte(rw[0]), []byte(rw[1]))
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	cr.FieldsPerRecord = -1

	var header []string
	if p.opt.HasHeader {
		h, err := cr.Read()
		if err == io.EOF {
			return dataset.New(0), nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv header: %w", err)
		}
		header = p.normalizeHeader(h)
	}

	var rows [][]dataset.Value
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if header == nil {
			header = positional(len(rec))
		}
		if len(rec) > len(header) {
			if !p.opt.SkipBadRows {
				return nil, fmt.Errorf("csv line %d: %d fields, header has %d", line, len(rec), len(header))
			}
			if p.skipped < skipLogLimit {
				p.opt.Logger.Warn().Int("line", line).Int("fields", len(rec)).Int("expected", len(header)).Msg("skipping row")
			}
			p.skipped++
			continue
		}
		row := make([]dataset.Value, len(header))
		for i := range row {
			if i < len(rec) {
				row[i] = p.opt.Missing.Parse(rec[i], p.opt.TrimSpace)
			}
		}
		rows = append(rows, row)
	}
	if header == nil {
		return dataset.New(0), nil
	}
	return dataset.FromRows(header, rows)
}

// normalizeHeader strips the BOM and applies HeaderMap. Other normalization
// is left to the schema step so raw names stay visible in errors.
func (p *Parser) normalizeHeader(h []string) []string {
	h = append([]string(nil), h...)
	if len(h) > 0 {
		h[0] = strings.TrimPrefix(h[0], "\uFEFF")
	}
	for i, c := range h {
		if m, ok := p.opt.HeaderMap[c]; ok {
			h[i] = m
		}
	}
	return h
}

func positional(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("col_%d", i+1)
	}
	return out
}

// streamingRewriter is an io.Reader that replaces all occurrences of pat with
// repl without buffering the whole stream. It keeps the last len(pat)-1 bytes
// of each block as carry so matches spanning reads are still found.
type streamingRewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte
	buf   bytes.Buffer
	eof   bool
}

func newStreamingRewriter(r io.Reader, pat, repl []byte) *streamingRewriter {
	capacity := 0
	if n := len(pat) - 1; n > 0 {
		capacity = n
	}
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, 64*1024),
		pat:   pat,
		repl:  repl,
		carry: make([]byte, 0, capacity),
	}
}

func (sr *streamingRewriter) Read(p []byte) (int, error) {
	for {
		if sr.buf.Len() > 0 {
			return sr.buf.Read(p)
		}
		if sr.eof {
			return 0, io.EOF
		}

		tmp := make([]byte, 64*1024)
		n, rerr := sr.br.Read(tmp)
		if n > 0 {
			block := append(append(make([]byte, 0, len(sr.carry)+n), sr.carry...), tmp[:n]...)
			if len(sr.pat) > 0 && !bytes.Equal(sr.pat, sr.repl) {
				block = bytes.ReplaceAll(block, sr.pat, sr.repl)
			}
			k := len(sr.pat) - 1
			if k > 0 && len(block) > k {
				sr.buf.Write(block[:len(block)-k])
				sr.carry = append(sr.carry[:0], block[len(block)-k:]...)
			} else if k > 0 {
				sr.carry = append(sr.carry[:0], block...)
			} else {
				sr.buf.Write(block)
			}
		}

		if rerr == io.EOF {
			sr.buf.Write(sr.carry)
			sr.carry = sr.carry[:0]
			sr.eof = true
		} else if rerr != nil {
			return 0, rerr
		}
	}
}
