package ddl

import (
	"fmt"
	"math"

	"clinprep/internal/dataset"
)

// LogicalType picks the logical type of a prepared column. Declared types
// win; untyped columns are inspected: all-boolean cells give Boolean,
// all-numeric cells give Float, anything else Text.
func LogicalType(c *dataset.Column) string {
	switch c.Type {
	case dataset.TypeIndicator, dataset.TypeOrdinal:
		return Integer
	case dataset.TypeBoolean:
		return Boolean
	case dataset.TypeContinuous, dataset.TypeNominal:
		return Float
	}
	var nums, bools, present int
	for _, v := range c.Values {
		switch v.Kind() {
		case dataset.KindMissing:
			continue
		case dataset.KindNumber:
			nums++
		case dataset.KindBool:
			bools++
		}
		present++
	}
	switch {
	case present == 0:
		return Text
	case bools == present:
		return Boolean
	case nums == present:
		return Float
	}
	return Text
}

// FromTable infers a TableDef for t. mapType turns a logical type into the
// backend SQL type. Every column is nullable.
func FromTable(fqn string, t *dataset.Table, mapType func(string) string) (TableDef, error) {
	if fqn == "" {
		return TableDef{}, fmt.Errorf("ddl: table name is required")
	}
	if t.NumCols() == 0 {
		return TableDef{}, fmt.Errorf("ddl: table %s has no columns", fqn)
	}
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, t.NumCols())}
	for j := 0; j < t.NumCols(); j++ {
		c := t.ColumnAt(j)
		def.Columns = append(def.Columns, ColumnDef{
			Name:     c.Name,
			SQLType:  mapType(LogicalType(c)),
			Nullable: true,
		})
	}
	return def, nil
}

// Cell converts v to a driver value for a column of the given logical type.
// Missing becomes nil; whole numbers in integer columns become int64.
func Cell(logical string, v dataset.Value) any {
	if v.IsMissing() {
		return nil
	}
	switch logical {
	case Integer:
		if f, ok := v.Float(); ok && f == math.Trunc(f) {
			return int64(f)
		}
	case Boolean:
		if b, ok := v.Bool(); ok {
			return b
		}
	case Text:
		return v.String()
	}
	return v.Any()
}
