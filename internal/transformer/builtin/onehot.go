package builtin

import (
	"clinprep/internal/dataset"
)

// MissingPolicy decides how OneHot encodes a missing source value.
type MissingPolicy string

const (
	// MissingAbsent leaves every indicator at 0 for the row ("unknown").
	MissingAbsent MissingPolicy = "absent"
	// MissingDefault encodes the row as the Default category.
	MissingDefault MissingPolicy = "default"
)

// OneHot replaces a categorical column with one indicator column per
// declared category, inserted where the source column was.
//
// Values are matched to Categories after trimming and case folding. A value
// outside the domain fails with an UnknownCategoryError unless Other names a
// declared category to collect it. Indicators are named "<Prefix>_<label>",
// or "<label>" when Prefix is empty.
//
// A table that no longer has the source column but already carries every
// indicator is returned unchanged, so encoding twice equals encoding once.
type OneHot struct {
	Column     string
	Categories []string
	Prefix     string
	Missing    MissingPolicy
	Default    string
	Other      string
}

func (OneHot) Name() string { return "one_hot" }

// Indicators returns the indicator column names in category order.
func (o OneHot) Indicators() []string {
	out := make([]string, len(o.Categories))
	for i, c := range o.Categories {
		if o.Prefix == "" {
			out[i] = c
			continue
		}
		out[i] = o.Prefix + "_" + c
	}
	return out
}

// index maps folded category labels to their position.
func (o OneHot) index() (map[string]int, error) {
	if len(o.Categories) == 0 {
		return nil, configErr(o.Name(), "%q declares no categories", o.Column)
	}
	idx := make(map[string]int, len(o.Categories))
	names := map[string]struct{}{}
	for i, c := range o.Categories {
		k := fold(c)
		if _, dup := idx[k]; dup {
			return nil, configErr(o.Name(), "%q declares category %q twice", o.Column, c)
		}
		idx[k] = i
	}
	for _, n := range o.Indicators() {
		names[n] = struct{}{}
	}
	if len(names) != len(o.Categories) {
		return nil, configErr(o.Name(), "%q indicator names are not unique", o.Column)
	}
	switch o.Missing {
	case MissingAbsent, "":
	case MissingDefault:
		if _, ok := idx[fold(o.Default)]; !ok {
			return nil, configErr(o.Name(), "%q default %q is not a declared category", o.Column, o.Default)
		}
	default:
		return nil, configErr(o.Name(), "%q unknown missing policy %q", o.Column, o.Missing)
	}
	if o.Other != "" {
		if _, ok := idx[fold(o.Other)]; !ok {
			return nil, configErr(o.Name(), "%q other bucket %q is not a declared category", o.Column, o.Other)
		}
	}
	return idx, nil
}

func (o OneHot) Apply(in *dataset.Table) (*dataset.Table, error) {
	idx, err := o.index()
	if err != nil {
		return nil, err
	}
	names := o.Indicators()

	pos := in.Index(o.Column)
	if pos < 0 {
		for _, n := range names {
			if in.Index(n) < 0 {
				return nil, &dataset.SchemaError{Column: o.Column, Reason: "column not found"}
			}
		}
		return in, nil
	}
	for _, n := range names {
		if n != o.Column && in.Index(n) >= 0 {
			return nil, &dataset.SchemaError{Column: n, Reason: "indicator collides with an existing column"}
		}
	}

	src := in.ColumnAt(pos)
	hot := make([]int, len(src.Values))
	for i, v := range src.Values {
		if v.IsMissing() {
			hot[i] = -1
			if o.Missing == MissingDefault {
				hot[i] = idx[fold(o.Default)]
			}
			continue
		}
		k, ok := idx[fold(v.String())]
		if !ok {
			if o.Other == "" {
				return nil, &dataset.UnknownCategoryError{Column: o.Column, Row: i, Value: v.String()}
			}
			k = idx[fold(o.Other)]
		}
		hot[i] = k
	}

	cols := make([]*dataset.Column, len(names))
	for j, n := range names {
		vals := make([]dataset.Value, len(hot))
		for i, k := range hot {
			if k == j {
				vals[i] = dataset.Number(1)
			} else {
				vals[i] = dataset.Number(0)
			}
		}
		cols[j] = &dataset.Column{Name: n, Type: dataset.TypeIndicator, Values: vals}
	}

	out := in.Clone()
	out.Drop(o.Column)
	if err := out.InsertAt(pos, cols...); err != nil {
		return nil, err
	}
	return out, nil
}
