// Package ddl renders Postgres DDL for prepared tables.
package ddl

import gddl "clinprep/internal/ddl"

// Types holds the Postgres column types.
var Types = gddl.TypeMap{
	gddl.Integer: "BIGINT",
	gddl.Boolean: "BOOLEAN",
	gddl.Float:   "DOUBLE PRECISION",
	gddl.Text:    "TEXT",
}

// MapType maps a logical column type to a Postgres SQL type.
func MapType(kind string) string { return Types.MapType(kind) }
