package ddl

import gddl "clinprep/internal/ddl"

// Types holds the SQL Server column types.
var Types = gddl.TypeMap{
	gddl.Integer: "BIGINT",
	gddl.Boolean: "BIT",
	gddl.Float:   "FLOAT",
	gddl.Text:    "NVARCHAR(MAX)",
}

// MapType maps a logical column type to a SQL Server type.
func MapType(kind string) string { return Types.MapType(kind) }
