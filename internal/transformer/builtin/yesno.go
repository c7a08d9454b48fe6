package builtin

import (
	"strings"

	"clinprep/internal/dataset"
)

// Fill selects how YesNo imputes missing cells.
type Fill string

const (
	FillMode  Fill = "mode"
	FillFalse Fill = "false"
	FillTrue  Fill = "true"
)

var (
	yesWords = map[string]struct{}{"yes": {}, "y": {}, "true": {}, "t": {}, "1": {}, "positive": {}}
	noWords  = map[string]struct{}{"no": {}, "n": {}, "false": {}, "f": {}, "0": {}, "negative": {}}
)

// ParseYesNo reads v as a yes/no literal. Spellings are matched after
// trimming and case folding; numbers 1 and 0 and booleans are accepted.
// ok is false for anything else, including missing values.
func ParseYesNo(v dataset.Value) (yes, ok bool) {
	if b, isBool := v.Bool(); isBool {
		return b, true
	}
	if v.IsMissing() {
		return false, false
	}
	s := fold(v.String())
	if _, hit := yesWords[s]; hit {
		return true, true
	}
	if _, hit := noWords[s]; hit {
		return false, true
	}
	return false, false
}

// YesNo canonicalizes yes/no columns to booleans and fills missing cells.
// With FillMode (the default) a missing cell takes the majority value of its
// column; a tie resolves to false. An unrecognized literal fails with an
// InvalidCategoryError.
type YesNo struct {
	Columns []string
	Fill    Fill
}

func (YesNo) Name() string { return "yes_no" }

func (y YesNo) Apply(in *dataset.Table) (*dataset.Table, error) {
	switch y.Fill {
	case "", FillMode, FillFalse, FillTrue:
	default:
		return nil, configErr(y.Name(), "unknown fill %q", y.Fill)
	}
	out := in.Clone()
	for _, name := range y.Columns {
		_, col, err := lookup(out, name)
		if err != nil {
			return nil, err
		}
		if err := y.normalize(col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (y YesNo) normalize(c *dataset.Column) error {
	var yes, no, missing int
	for i, v := range c.Values {
		if s, isText := v.Str(); v.IsMissing() || (isText && strings.TrimSpace(s) == "") {
			c.Values[i] = dataset.Missing
			missing++
			continue
		}
		b, ok := ParseYesNo(v)
		if !ok {
			return &dataset.InvalidCategoryError{Column: c.Name, Row: i, Value: v.String()}
		}
		if b {
			yes++
		} else {
			no++
		}
		c.Values[i] = dataset.Bool(b)
	}
	c.Type = dataset.TypeBoolean
	if missing == 0 {
		return nil
	}

	var fill bool
	switch y.Fill {
	case FillTrue:
		fill = true
	case FillFalse:
		fill = false
	default:
		if yes+no == 0 {
			return &dataset.UndefinedImputationError{Column: c.Name, Strategy: string(FillMode)}
		}
		fill = yes > no
	}
	fillMissing(c, dataset.Bool(fill))
	return nil
}
