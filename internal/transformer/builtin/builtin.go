// Package builtin contains the reusable table steps of the preparation
// pipeline: schema normalization, binary mapping, mean/mode imputation,
// ordinal score imputation, one-hot encoding, yes/no canonicalization and
// negative-duration repair.
//
// Every step clones its input before writing, so the table handed to Apply
// is never modified.
package builtin

import (
	"fmt"
	"sort"
	"strings"

	"clinprep/internal/dataset"

	"golang.org/x/text/cases"
)

// fold canonicalizes a literal for case-insensitive matching.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// lookup returns the index and column called name, or a SchemaError.
func lookup(t *dataset.Table, name string) (int, *dataset.Column, error) {
	i := t.Index(name)
	if i < 0 {
		return -1, nil, &dataset.SchemaError{Column: name, Reason: "column not found"}
	}
	return i, t.ColumnAt(i), nil
}

// modeOf returns the most frequent present value. Ties resolve to the lowest
// value under dataset.Less. ok is false when every value is missing.
func modeOf(vals []dataset.Value) (dataset.Value, bool) {
	type bucket struct {
		v dataset.Value
		n int
	}
	counts := map[string]*bucket{}
	for _, v := range vals {
		if v.IsMissing() {
			continue
		}
		k := v.Kind().String() + "\x00" + v.String()
		if b, ok := counts[k]; ok {
			b.n++
			continue
		}
		counts[k] = &bucket{v: v, n: 1}
	}
	if len(counts) == 0 {
		return dataset.Missing, false
	}
	all := make([]*bucket, 0, len(counts))
	for _, b := range counts {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].n != all[j].n {
			return all[i].n > all[j].n
		}
		return dataset.Less(all[i].v, all[j].v)
	})
	return all[0].v, true
}

// fillMissing replaces every missing cell of c with v.
func fillMissing(c *dataset.Column, v dataset.Value) {
	for i := range c.Values {
		if c.Values[i].IsMissing() {
			c.Values[i] = v
		}
	}
}

func configErr(step, format string, args ...any) error {
	return fmt.Errorf("%s: %s", step, fmt.Sprintf(format, args...))
}
