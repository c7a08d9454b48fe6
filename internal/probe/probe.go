// Package probe profiles a loaded table before it is prepared.
//
// For every column it counts missing and negative cells, infers a semantic
// type from the present values and, for categorical columns, records the
// observed categories. The result is printed by `clinprep -probe` as a
// summary, or turned into a starter pipeline by Suggest so that a new export
// can be wired to the generic transforms without writing the config by hand.
//
// Inference is best effort and only looks at values:
//
//   - every present value is a yes/no literal (and not all plain numbers) -> boolean
//   - every present value is an integer with few distinct levels -> ordinal
//   - every present value is numeric -> continuous
//   - text with few distinct values -> nominal
//   - anything else, or an all-missing column -> unknown
//
// A column that already carries a type (set by a transform) keeps it.
package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path"
	"sort"
	"strings"
	"text/tabwriter"

	"clinprep/internal/config"
	"clinprep/internal/dataset"
	"clinprep/internal/datasource"
	"clinprep/internal/datasource/compression"
	"clinprep/internal/parser"
	"clinprep/internal/transformer/builtin"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
)

// Options tune type inference.
type Options struct {
	// MaxCategories is the most distinct text values a nominal column may
	// have. Default 20.
	MaxCategories int

	// MaxLevels is the most distinct integers an ordinal column may have.
	// Default 11, enough for 0..10 scores.
	MaxLevels int
}

func (o Options) withDefaults() Options {
	if o.MaxCategories <= 0 {
		o.MaxCategories = 20
	}
	if o.MaxLevels <= 0 {
		o.MaxLevels = 11
	}
	return o
}

// Column is the profile of one input column.
type Column struct {
	Name       string       `json:"name"`
	Normalized string       `json:"normalized"`
	Type       dataset.Type `json:"type"`
	Rows       int          `json:"rows"`
	Missing    int          `json:"missing"`
	Negative   int          `json:"negative,omitempty"`
	Distinct   int          `json:"distinct"`
	Min        *float64     `json:"min,omitempty"`
	Max        *float64     `json:"max,omitempty"`

	// Categories holds the sorted distinct values of nominal columns.
	Categories []string `json:"categories,omitempty"`
}

// Profile profiles every column of t in order.
func Profile(t *dataset.Table, opt Options) []Column {
	opt = opt.withDefaults()
	out := make([]Column, t.NumCols())
	for j := range out {
		out[j] = profileColumn(t.ColumnAt(j), opt)
	}
	return out
}

func profileColumn(c *dataset.Column, opt Options) Column {
	p := Column{Name: c.Name, Normalized: builtin.NormalizeName(c.Name), Rows: len(c.Values)}

	distinct := map[string]struct{}{}
	var present, bools int
	numeric, integral, yesno := true, true, true
	for _, v := range c.Values {
		if s, isText := v.Str(); v.IsMissing() || (isText && strings.TrimSpace(s) == "") {
			p.Missing++
			continue
		}
		present++
		distinct[v.String()] = struct{}{}

		if v.Kind() == dataset.KindBool {
			bools++
		}
		if _, ok := builtin.ParseYesNo(v); !ok {
			yesno = false
		}
		f, ok := v.Float()
		if !ok {
			numeric = false
			continue
		}
		if f != math.Trunc(f) {
			integral = false
		}
		if f < 0 {
			p.Negative++
		}
		if p.Min == nil || f < *p.Min {
			lo := f
			p.Min = &lo
		}
		if p.Max == nil || f > *p.Max {
			hi := f
			p.Max = &hi
		}
	}
	p.Distinct = len(distinct)

	switch {
	case present == 0:
		p.Type = dataset.TypeUnknown
	case c.Type != dataset.TypeUnknown:
		p.Type = c.Type
	case yesno && (!numeric || bools == present):
		p.Type = dataset.TypeBoolean
	case numeric && integral && p.Distinct <= opt.MaxLevels:
		p.Type = dataset.TypeOrdinal
	case numeric:
		p.Type = dataset.TypeContinuous
	case p.Distinct <= opt.MaxCategories:
		p.Type = dataset.TypeNominal
	}

	if p.Type == dataset.TypeNominal {
		p.Categories = categories(distinct)
	}
	if !numeric {
		p.Min, p.Max = nil, nil
	}
	return p
}

// categories returns the sorted distinct labels, keeping one spelling per
// case-folded label so the list is a valid one_hot domain.
func categories(distinct map[string]struct{}) []string {
	all := make([]string, 0, len(distinct))
	for k := range distinct {
		all = append(all, k)
	}
	sort.Strings(all)

	folder := cases.Fold()
	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, k := range all {
		f := folder.String(strings.TrimSpace(k))
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, k)
	}
	return out
}

// WriteText prints one aligned line per column.
func WriteText(w io.Writer, cols []Column) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tMISSING\tDISTINCT\tRANGE")
	for _, c := range cols {
		missing := humanize.Comma(int64(c.Missing))
		if c.Rows > 0 {
			missing += fmt.Sprintf(" (%s%%)", humanize.FtoaWithDigits(100*float64(c.Missing)/float64(c.Rows), 1))
		}
		rng := ""
		switch {
		case c.Min != nil:
			rng = humanize.Ftoa(*c.Min) + " .. " + humanize.Ftoa(*c.Max)
			if c.Negative > 0 {
				rng += fmt.Sprintf(" (%s negative)", humanize.Comma(int64(c.Negative)))
			}
		case len(c.Categories) > 0:
			rng = strings.Join(c.Categories, " | ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Normalized, c.Type, missing, humanize.Comma(int64(c.Distinct)), rng)
	}
	return tw.Flush()
}

// WriteJSON prints the profiles as an indented JSON array.
func WriteJSON(w io.Writer, cols []Column) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cols)
}

// Suggest builds a starter pipeline for the profiled input: schema
// normalization, one encoder per nominal column (unknowns kept as all-zero
// rows), one yes/no group, a mode group for ordinal columns with gaps, a mean
// group for continuous columns with gaps and a negative-value repair for
// continuous columns named like a duration. Output goes to a csv next to the
// input name.
func Suggest(job string, src config.Source, cols []Column) config.Pipeline {
	name := datasource.Name(src)
	p := config.Pipeline{
		Job:     job,
		Source:  src,
		Parser:  config.Parser{Kind: parser.Kind(config.Parser{}, name), Options: config.Options{}},
		Storage: config.Storage{Kind: "csv", File: config.StorageFile{Path: preparedName(name)}},
	}
	p.Transform = append(p.Transform, config.Transform{Kind: "normalize_schema", Options: config.Options{}})

	var yesno, mode, mean, repair []string
	for _, c := range cols {
		switch c.Type {
		case dataset.TypeNominal:
			p.Transform = append(p.Transform, config.Transform{
				Kind: "one_hot",
				Options: config.Options{
					"column":     c.Normalized,
					"categories": c.Categories,
					"prefix":     c.Normalized,
					"missing":    string(builtin.MissingAbsent),
				},
			})
		case dataset.TypeBoolean:
			yesno = append(yesno, c.Normalized)
		case dataset.TypeOrdinal, dataset.TypeContinuous:
			switch {
			case c.Negative > 0 && looksLikeDuration(c.Normalized):
				repair = append(repair, c.Normalized)
			case c.Missing == 0:
			case c.Type == dataset.TypeOrdinal:
				mode = append(mode, c.Normalized)
			default:
				mean = append(mean, c.Normalized)
			}
		}
	}

	if len(yesno) > 0 {
		p.Transform = append(p.Transform, config.Transform{
			Kind: "yes_no", Options: config.Options{"columns": yesno, "fill": string(builtin.FillMode)},
		})
	}
	if len(mode) > 0 {
		p.Transform = append(p.Transform, config.Transform{
			Kind: "impute", Name: "ordinal_mode", Options: config.Options{"columns": mode, "strategy": string(builtin.Mode)},
		})
	}
	if len(mean) > 0 {
		p.Transform = append(p.Transform, config.Transform{
			Kind: "impute", Name: "continuous_mean", Options: config.Options{"columns": mean, "strategy": string(builtin.Mean)},
		})
	}
	for _, c := range repair {
		p.Transform = append(p.Transform, config.Transform{
			Kind: "repair_negatives", Options: config.Options{"column": c, "decimals": 2},
		})
	}
	return p
}

// WriteConfig prints p as indented JSON, loadable with config.Load.
func WriteConfig(w io.Writer, p config.Pipeline) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func looksLikeDuration(name string) bool {
	n := strings.ToLower(name)
	for _, w := range []string{"days", "hours", "duration", "length of stay"} {
		if strings.Contains(n, w) {
			return true
		}
	}
	return false
}

// preparedName derives the output file from the input object name:
// "data/admissions.xlsx.gz" -> "admissions_prepared.csv".
func preparedName(name string) string {
	base := path.Base(compression.Trim(strings.ReplaceAll(name, "\\", "/")))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "output"
	}
	return base + "_prepared.csv"
}
