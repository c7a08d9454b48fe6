package ddl

import (
	"context"
	"fmt"
	"strings"

	"clinprep/internal/dataset"
	gddl "clinprep/internal/ddl"
)

// Dialect double-quotes identifiers and emits CREATE TABLE IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:  "postgres",
	Quote: QuoteIdent,
	Wrap: func(fqn, cols string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, cols)
	},
}

// QuoteIdent quotes one identifier segment:
//
//	QuoteIdent(`BMI`)        => `"BMI"`
//	QuoteIdent(`weird"name`) => `"weird""name"`
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// BuildCreateTableSQL renders t for Postgres.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

// EnsureTable creates table from the column types of t. It is idempotent.
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
