package builtin

import (
	"clinprep/internal/dataset"
)

// BinaryMap maps a two-valued categorical column to numeric codes through an
// explicit lookup, e.g. {"male": 1, "female": 0}. Keys are matched after
// trimming and case folding; several keys may share a code. Values already
// equal to one of the codes pass through, missing cells stay missing and any
// other value fails with an UnknownCategoryError.
type BinaryMap struct {
	Column  string
	Mapping map[string]float64
}

func (BinaryMap) Name() string { return "binary_map" }

func (b BinaryMap) validate() error {
	codes := map[float64]struct{}{}
	for _, c := range b.Mapping {
		codes[c] = struct{}{}
	}
	if len(codes) != 2 {
		return configErr(b.Name(), "mapping for %q must produce exactly two codes, got %d", b.Column, len(codes))
	}
	return nil
}

func (b BinaryMap) Apply(in *dataset.Table) (*dataset.Table, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	folded := make(map[string]float64, len(b.Mapping))
	codes := map[float64]struct{}{}
	for k, c := range b.Mapping {
		folded[fold(k)] = c
		codes[c] = struct{}{}
	}

	out := in.Clone()
	_, col, err := lookup(out, b.Column)
	if err != nil {
		return nil, err
	}
	for i, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		if c, ok := folded[fold(v.String())]; ok {
			col.Values[i] = dataset.Number(c)
			continue
		}
		if f, ok := v.Float(); ok {
			if _, known := codes[f]; known {
				col.Values[i] = dataset.Number(f)
				continue
			}
		}
		return nil, &dataset.UnknownCategoryError{Column: b.Column, Row: i, Value: v.String()}
	}
	col.Type = dataset.TypeNominal
	return out, nil
}
