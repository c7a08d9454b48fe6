package dataset

import "fmt"

// Type is the semantic type of a column. It drives export DDL and is
// informational for steps; values remain the source of truth.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeContinuous
	TypeNominal
	TypeOrdinal
	TypeBoolean
	TypeIndicator
)

func (t Type) String() string {
	switch t {
	case TypeContinuous:
		return "continuous"
	case TypeNominal:
		return "nominal"
	case TypeOrdinal:
		return "ordinal"
	case TypeBoolean:
		return "boolean"
	case TypeIndicator:
		return "indicator"
	default:
		return "unknown"
	}
}

// MarshalText renders t by name in JSON profiles.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Column is a named field with one value per row.
type Column struct {
	Name   string
	Type   Type
	Values []Value
}

// clone returns a deep copy of c.
func (c *Column) clone() *Column {
	v := make([]Value, len(c.Values))
	copy(v, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: v}
}

// Missing counts absent cells in c.
func (c *Column) Missing() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Record is a row view keyed by column name.
type Record map[string]Value

// Table is an ordered set of equally long columns.
type Table struct {
	cols []*Column
	rows int
}

// New returns an empty table with the given row count. Columns are added
// with InsertAt or Append.
func New(rows int) *Table { return &Table{rows: rows} }

// FromRows builds a table from a header and row-major values. Rows must all
// have len(header) cells. Duplicate header names are allowed here; the
// schema normalizer is the stage that rejects collisions.
func FromRows(header []string, rows [][]Value) (*Table, error) {
	t := New(len(rows))
	for j, name := range header {
		vals := make([]Value, len(rows))
		for i, r := range rows {
			if len(r) != len(header) {
				return nil, fmt.Errorf("row %d: %d cells, header has %d", i, len(r), len(header))
			}
			vals[i] = r[j]
		}
		t.cols = append(t.cols, &Column{Name: name, Values: vals})
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the first column called name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the first column called name.
func (t *Table) Column(name string) (*Column, bool) {
	if i := t.Index(name); i >= 0 {
		return t.cols[i], true
	}
	return nil, false
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// Clone returns a deep copy; steps clone before writing so their input stays
// untouched.
func (t *Table) Clone() *Table {
	out := &Table{rows: t.rows, cols: make([]*Column, len(t.cols))}
	for i, c := range t.cols {
		out.cols[i] = c.clone()
	}
	return out
}

// Rename sets the name of the i-th column.
func (t *Table) Rename(i int, name string) { t.cols[i].Name = name }

// Drop removes the column called name and reports whether it existed.
func (t *Table) Drop(name string) bool {
	i := t.Index(name)
	if i < 0 {
		return false
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	return true
}

// InsertAt inserts cols before position i (i == NumCols appends). Every
// column must have NumRows values.
func (t *Table) InsertAt(i int, cols ...*Column) error {
	if i < 0 || i > len(t.cols) {
		return fmt.Errorf("insert position %d out of range [0,%d]", i, len(t.cols))
	}
	for _, c := range cols {
		if len(c.Values) != t.rows {
			return &SchemaError{Column: c.Name, Reason: fmt.Sprintf("has %d values, table has %d rows", len(c.Values), t.rows)}
		}
	}
	merged := make([]*Column, 0, len(t.cols)+len(cols))
	merged = append(merged, t.cols[:i]...)
	merged = append(merged, cols...)
	merged = append(merged, t.cols[i:]...)
	t.cols = merged
	return nil
}

// Replace swaps the i-th column for c, which must have NumRows values.
func (t *Table) Replace(i int, c *Column) error {
	if len(c.Values) != t.rows {
		return &SchemaError{Column: c.Name, Reason: fmt.Sprintf("has %d values, table has %d rows", len(c.Values), t.rows)}
	}
	t.cols[i] = c
	return nil
}

// Append adds cols at the end of the table.
func (t *Table) Append(cols ...*Column) error { return t.InsertAt(len(t.cols), cols...) }

// Row returns a name-keyed view of row i. Later duplicates of a name shadow
// earlier ones.
func (t *Table) Row(i int) Record {
	r := make(Record, len(t.cols))
	for _, c := range t.cols {
		r[c.Name] = c.Values[i]
	}
	return r
}

// Equal reports whether both tables have the same names, types and cells in
// the same order.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.cols) != len(o.cols) {
		return false
	}
	for j, c := range t.cols {
		oc := o.cols[j]
		if c.Name != oc.Name || c.Type != oc.Type {
			return false
		}
		for i := range c.Values {
			if !c.Values[i].Equal(oc.Values[i]) {
				return false
			}
		}
	}
	return true
}
