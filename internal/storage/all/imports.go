// Package all wires every built-in storage backend into the storage package.
//
// It exists purely for side effects: importing it runs the init functions of
// each concrete backend, which register their repository factories, DDL
// bootstrappers and file sinks. After a blank import the following
// storage.kind values are accepted by storage.Open:
//
//   - "csv"      (clinprep/internal/storage/csvfile)
//   - "xlsx"     (clinprep/internal/storage/xlsx)
//   - "sqlite"   (clinprep/internal/storage/sqlite)
//   - "postgres" (clinprep/internal/storage/postgres)
//   - "mssql"    (clinprep/internal/storage/mssql)
//
// Typical usage in a wiring layer:
//
//	import _ "clinprep/internal/storage/all"
//
//	sink, err := storage.Open(ctx, p.Storage, storage.Options{Logger: log})
//	if err != nil {
//	    // handle error
//	}
//	defer sink.Close()
//	n, err := sink.Write(ctx, prepared)
//
// A binary that needs only a subset of backends can import those packages
// directly instead.
package all

import (
	_ "clinprep/internal/storage/csvfile"
	_ "clinprep/internal/storage/mssql"
	_ "clinprep/internal/storage/postgres"
	_ "clinprep/internal/storage/sqlite"
	_ "clinprep/internal/storage/xlsx"
)
