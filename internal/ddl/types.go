package ddl

import (
	"context"
	"strings"
)

// Logical column types. Backends map them to SQL types with their MapType.
const (
	Integer = "integer"
	Float   = "float"
	Boolean = "boolean"
	Text    = "text"
)

// ColumnDef describes one column of a table to create.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef is a table name plus ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Execer runs one SQL statement. Storage repositories satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// aliases folds spellings seen in hand-written configs onto logical types.
var aliases = map[string]string{
	"int":    Integer,
	"bigint": Integer,
	"bool":   Boolean,
	"double": Float,
	"real":   Float,
}

// TypeMap assigns a backend SQL type to each logical type. The Text entry
// doubles as the fallback for unknown kinds.
type TypeMap map[string]string

// MapType returns the SQL type for kind, matched case-insensitively.
func (m TypeMap) MapType(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	if a, ok := aliases[k]; ok {
		k = a
	}
	if sql, ok := m[k]; ok {
		return sql
	}
	return m[Text]
}
