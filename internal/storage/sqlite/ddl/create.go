package ddl

import (
	"context"
	"fmt"
	"strings"

	"clinprep/internal/dataset"
	gddl "clinprep/internal/ddl"
)

// Dialect quotes identifiers with double quotes and emits
// CREATE TABLE IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:  "sqlite",
	Quote: QuoteIdent,
	Wrap: func(fqn, cols string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, cols)
	},
}

// QuoteIdent quotes one identifier, escaping embedded quotes.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// BuildCreateTableSQL renders t for SQLite.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

// EnsureTable creates table with columns inferred from t when it does not
// exist.
func EnsureTable(ctx context.Context, ex gddl.Execer, table string, t *dataset.Table) error {
	def, err := gddl.FromTable(table, t, MapType)
	if err != nil {
		return err
	}
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return ex.Exec(ctx, sql)
}
