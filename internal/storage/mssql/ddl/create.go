// Package ddl renders SQL Server DDL for prepared tables.
//
// T-SQL has no CREATE TABLE IF NOT EXISTS, so statements are wrapped in an
// IF OBJECT_ID(...) IS NULL guard.
package ddl

import (
	"context"
	"fmt"
	"strings"

	"clinprep/internal/dataset"
	gddl "clinprep/internal/ddl"
)

// Dialect renders [bracketed] identifiers inside the OBJECT_ID guard:
//
//	IF OBJECT_ID(N'[dbo].[t]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[t] (
//	    [col1] TYPE,
//	    PRIMARY KEY ([pk1])
//	  );
//	END;
var Dialect = gddl.Dialect{
	Name:   "mssql",
	Quote:  QuoteIdent,
	Indent: ",\n    ",
	Wrap: func(fqn, cols string) string {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			strings.ReplaceAll(fqn, "'", "''"), fqn, cols,
		)
	},
}

// QuoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// QuoteFQN quotes a possibly schema-qualified table name:
//
//	"dbo.Users"   -> [dbo].[Users]
//	"a.b.c"       -> [a].[b].[c]
func QuoteFQN(fqn string) string { return Dialect.QuoteFQN(fqn) }

// BuildCreateTableSQL returns a T-SQL script that creates t if it does not
// already exist.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

// EnsureTable creates table from the column types of t.
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
