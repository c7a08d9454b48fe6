package dataset

import (
	"math"
	"strconv"
	"strings"
)

// DefaultMissingTokens are the raw cell spellings treated as absent when a
// loader has no explicit list. Matching is exact after trimming.
var DefaultMissingTokens = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "#N/A"}

// MissingSet is a lookup of raw tokens that mean "missing".
type MissingSet map[string]struct{}

// NewMissingSet builds a MissingSet; a nil or empty list yields the defaults.
func NewMissingSet(tokens []string) MissingSet {
	if len(tokens) == 0 {
		tokens = DefaultMissingTokens
	}
	m := make(MissingSet, len(tokens))
	for _, t := range tokens {
		m[strings.TrimSpace(t)] = struct{}{}
	}
	return m
}

// Parse converts a raw spreadsheet cell into a Value: missing tokens become
// Missing, finite numbers become Number, anything else Text. The raw string
// is trimmed before matching but kept verbatim in Text values only when trim
// is false.
func (m MissingSet) Parse(raw string, trim bool) Value {
	s := strings.TrimSpace(raw)
	if _, ok := m[s]; ok {
		return Missing
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f)
	}
	if trim {
		return Text(s)
	}
	return Text(raw)
}
