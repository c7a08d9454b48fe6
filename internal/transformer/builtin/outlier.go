package builtin

import (
	"math"

	"clinprep/internal/dataset"
)

// RepairNegatives repairs a duration column that is invalid below zero.
// Negative and missing cells are both replaced with the mean of the valid
// (present, non-negative) cells, rounded to Decimals places when Decimals is
// not negative. Valid cells are left as they are.
type RepairNegatives struct {
	Column   string
	Decimals int
}

func (RepairNegatives) Name() string { return "repair_negatives" }

func (r RepairNegatives) Apply(in *dataset.Table) (*dataset.Table, error) {
	out := in.Clone()
	_, col, err := lookup(out, r.Column)
	if err != nil {
		return nil, err
	}

	invalid := make([]int, 0)
	var (
		sum float64
		n   int
	)
	for i, v := range col.Values {
		if v.IsMissing() {
			invalid = append(invalid, i)
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, &dataset.UnknownCategoryError{Column: r.Column, Row: i, Value: v.String()}
		}
		if f < 0 {
			invalid = append(invalid, i)
			continue
		}
		sum += f
		n++
	}
	if len(invalid) == 0 {
		return out, nil
	}
	if n == 0 {
		return nil, &dataset.UndefinedImputationError{Column: r.Column, Strategy: string(Mean)}
	}

	avg := round(sum/float64(n), r.Decimals)
	for _, i := range invalid {
		col.Values[i] = dataset.Number(avg)
	}
	if col.Type == dataset.TypeUnknown {
		col.Type = dataset.TypeContinuous
	}
	return out, nil
}

func round(f float64, decimals int) float64 {
	if decimals < 0 {
		return f
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(f*p) / p
}
