// Package ddl is a small, backend-agnostic model for CREATE TABLE statements.
// Backends supply a Dialect for identifier quoting and the statement
// wrapper; the zero Dialect emits names verbatim.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect adapts rendering to one SQL flavour.
type Dialect struct {
	// Name prefixes error messages ("postgres ddl: ...").
	Name string

	// Quote quotes one identifier segment. Nil leaves names as-is.
	Quote func(string) string

	// Wrap builds the statement from the quoted table name and the rendered
	// column list. Nil gives "CREATE TABLE <fqn> (\n  <cols>\n);".
	Wrap func(fqn, cols string) string

	// Indent separates column clauses. Empty means ",\n  ".
	Indent string
}

func (d Dialect) quote(id string) string {
	if d.Quote == nil {
		return id
	}
	return d.Quote(id)
}

// QuoteFQN quotes a possibly schema-qualified name segment by segment.
// Empty segments are dropped.
func (d Dialect) QuoteFQN(fqn string) string {
	if d.Quote == nil {
		return fqn
	}
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, d.Quote(p))
		}
	}
	return strings.Join(out, ".")
}

func (d Dialect) errorf(format string, args ...any) error {
	prefix := "ddl"
	if d.Name != "" {
		prefix = d.Name + " ddl"
	}
	return fmt.Errorf(prefix+": "+format, args...)
}

// BuildCreateTableSQL renders t for dialect d.
//
// Each column renders as <name> <type> [NOT NULL] [DEFAULT <expr>]. Primary
// key columns are always NOT NULL and are collected into a trailing
// PRIMARY KEY clause in declaration order. Default is raw SQL.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", d.errorf("table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", d.errorf("at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", d.errorf("column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", d.errorf("column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())
		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	indent := d.Indent
	if indent == "" {
		indent = ",\n  "
	}
	body := strings.Join(cols, indent)
	if d.Wrap != nil {
		return d.Wrap(d.QuoteFQN(fqn), body), nil
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", d.QuoteFQN(fqn), body), nil
}
