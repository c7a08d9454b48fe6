// Package ddl renders SQLite DDL for prepared tables.
package ddl

import gddl "clinprep/internal/ddl"

// Types holds SQLite affinities. Booleans are stored as 0/1 integers.
var Types = gddl.TypeMap{
	gddl.Integer: "INTEGER",
	gddl.Boolean: "INTEGER",
	gddl.Float:   "REAL",
	gddl.Text:    "TEXT",
}

// MapType maps a logical column type to a SQLite type affinity.
func MapType(kind string) string { return Types.MapType(kind) }
