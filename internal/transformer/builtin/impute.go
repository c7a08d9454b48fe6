package builtin

import (
	"clinprep/internal/dataset"

	"golang.org/x/sync/errgroup"
)

// Strategy selects the statistic an Impute step fills missing cells with.
type Strategy string

const (
	Mean Strategy = "mean"
	Mode Strategy = "mode"
)

// Impute fills missing cells of each listed column with a statistic computed
// over that column's present values. Statistics are never shared between
// columns. Present values are not altered.
//
// Mean requires numeric cells; a present non-numeric value fails with an
// UnknownCategoryError. Mode works on any kind and breaks ties towards the
// lowest value (numbers before text, false before true). A column with no
// present values fails with an UndefinedImputationError.
//
// Columns are independent, so with Workers > 1 they are processed
// concurrently, one goroutine per column.
type Impute struct {
	Columns  []string
	Strategy Strategy
	Workers  int
}

func (s Impute) Name() string { return "impute_" + string(s.Strategy) }

func (s Impute) Apply(in *dataset.Table) (*dataset.Table, error) {
	var fill func(*dataset.Column) error
	switch s.Strategy {
	case Mean:
		fill = imputeMean
	case Mode:
		fill = imputeMode
	default:
		return nil, configErr("impute", "unknown strategy %q", s.Strategy)
	}

	out := in.Clone()
	cols := make([]*dataset.Column, len(s.Columns))
	for j, name := range s.Columns {
		_, c, err := lookup(out, name)
		if err != nil {
			return nil, err
		}
		cols[j] = c
	}

	// errs is indexed by column so the reported failure does not depend on
	// goroutine scheduling.
	errs := make([]error, len(cols))
	var g errgroup.Group
	g.SetLimit(max(s.Workers, 1))
	for j, c := range cols {
		g.Go(func() error {
			errs[j] = fill(c)
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func imputeMean(c *dataset.Column) error {
	var (
		sum float64
		n   int
	)
	for i, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return &dataset.UnknownCategoryError{Column: c.Name, Row: i, Value: v.String()}
		}
		sum += f
		n++
	}
	switch {
	case len(c.Values) == 0:
		return nil
	case n == 0:
		return &dataset.UndefinedImputationError{Column: c.Name, Strategy: string(Mean)}
	}
	fillMissing(c, dataset.Number(sum/float64(n)))
	if c.Type == dataset.TypeUnknown {
		c.Type = dataset.TypeContinuous
	}
	return nil
}

func imputeMode(c *dataset.Column) error {
	if c.Missing() == 0 {
		return nil
	}
	m, ok := modeOf(c.Values)
	if !ok {
		return &dataset.UndefinedImputationError{Column: c.Name, Strategy: string(Mode)}
	}
	fillMissing(c, m)
	return nil
}
