package builtin

import (
	"fmt"
	"strings"

	"clinprep/internal/dataset"

	"golang.org/x/text/unicode/norm"
)

var newlines = strings.NewReplacer("\r\n", "", "\n", "", "\r", "")

// NormalizeName canonicalizes a column identifier: line breaks are removed,
// surrounding whitespace trimmed and the result NFC-normalized.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(newlines.Replace(s)))
}

// NormalizeSchema rewrites column names with NormalizeName. Cells are left
// untouched. Two columns that end up with the same name fail with a
// SchemaError.
type NormalizeSchema struct{}

func (NormalizeSchema) Name() string { return "normalize_schema" }

func (NormalizeSchema) Apply(in *dataset.Table) (*dataset.Table, error) {
	seen := make(map[string]string, in.NumCols())
	names := make([]string, in.NumCols())
	for i, raw := range in.Names() {
		n := NormalizeName(raw)
		if prev, dup := seen[n]; dup {
			return nil, &dataset.SchemaError{
				Column: n,
				Reason: fmt.Sprintf("columns %q and %q collide after normalization", prev, raw),
			}
		}
		seen[n] = raw
		names[i] = n
	}
	out := in.Clone()
	for i, n := range names {
		out.Rename(i, n)
	}
	return out, nil
}

// RequireColumns fails with a SchemaError when any listed column is absent.
// A column with an entry in Encoded is also satisfied when every one of its
// indicator columns is present, so the check holds on already prepared
// tables. The table passes through unchanged.
type RequireColumns struct {
	Columns []string
	Encoded map[string][]string
}

func (RequireColumns) Name() string { return "require_columns" }

func (r RequireColumns) Apply(in *dataset.Table) (*dataset.Table, error) {
	var missing []string
	for _, c := range r.Columns {
		if in.Index(c) < 0 && !r.encoded(in, c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		reason := "column not found"
		if len(missing) > 1 {
			reason = fmt.Sprintf("column not found (%d missing: %s)", len(missing), strings.Join(missing, ", "))
		}
		return nil, &dataset.SchemaError{Column: missing[0], Reason: reason}
	}
	return in, nil
}

func (r RequireColumns) encoded(in *dataset.Table, col string) bool {
	ind, ok := r.Encoded[col]
	if !ok || len(ind) == 0 {
		return false
	}
	for _, n := range ind {
		if in.Index(n) < 0 {
			return false
		}
	}
	return true
}
