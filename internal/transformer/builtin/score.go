package builtin

import (
	"math"

	"clinprep/internal/dataset"
)

// ScoreImpute imputes an ordinal clinical score such as ECOG PS.
//
// Without From, missing cells take the column mode. With From, a missing
// cell takes the same row's value of the From column and falls back to the
// column mode only when that is missing too. Steps that read From must run
// after the step that completes it.
//
// Present values must be integers; when Max > Min they must also lie in
// [Min, Max]. Anything else fails with an UnknownCategoryError. Numeric text
// is stored as a number.
type ScoreImpute struct {
	Column string
	From   string
	Min    int
	Max    int
}

func (ScoreImpute) Name() string { return "score_impute" }

func (s ScoreImpute) Apply(in *dataset.Table) (*dataset.Table, error) {
	out := in.Clone()
	_, col, err := lookup(out, s.Column)
	if err != nil {
		return nil, err
	}
	var from *dataset.Column
	if s.From != "" {
		if _, from, err = lookup(out, s.From); err != nil {
			return nil, err
		}
	}

	for i, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		score, ok := s.score(v)
		if !ok {
			return nil, &dataset.UnknownCategoryError{Column: s.Column, Row: i, Value: v.String()}
		}
		col.Values[i] = dataset.Number(score)
	}

	mode, hasMode := modeOf(col.Values)
	for i, v := range col.Values {
		if !v.IsMissing() {
			continue
		}
		if from != nil && !from.Values[i].IsMissing() {
			score, ok := s.score(from.Values[i])
			if !ok {
				return nil, &dataset.UnknownCategoryError{Column: s.From, Row: i, Value: from.Values[i].String()}
			}
			col.Values[i] = dataset.Number(score)
			continue
		}
		if !hasMode {
			return nil, &dataset.UndefinedImputationError{Column: s.Column, Strategy: string(Mode)}
		}
		col.Values[i] = mode
	}
	col.Type = dataset.TypeOrdinal
	return out, nil
}

// score validates v as an integer score within the configured range.
func (s ScoreImpute) score(v dataset.Value) (float64, bool) {
	f, ok := v.Float()
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	if s.Max > s.Min && (f < float64(s.Min) || f > float64(s.Max)) {
		return 0, false
	}
	return f, true
}
