// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"clinprep/internal/dataset"
	"clinprep/internal/storage"
	"clinprep/internal/storage/mssql/ddl"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := open(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL("mssql", func(ctx context.Context, repo storage.Repository, table string, t *dataset.Table) error {
		return ddl.EnsureTable(ctx, repo, table, t)
	})
}

// open is a test hook that points to Open by default.
var open = Open

var _ storage.Repository = (*Repository)(nil)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN   string
	Table string // e.g. "dbo.admissions_prepared"
}

// Repository bulk-copies prepared rows into one SQL Server table.
type Repository struct {
	db     *sql.DB
	cfg    Config
	server string // host/database, for error messages
}

// Open validates the DSN, connects and pings the server.
func Open(ctx context.Context, cfg Config) (*Repository, error) {
	p, err := msdsn.Parse(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	server := p.Host + "/" + p.Database

	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql %s: open: %w", server, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql %s: ping: %w", server, err)
	}
	return &Repository{db: db, cfg: cfg, server: server}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() { _ = r.db.Close() }

// bulkOptions keeps missing cells as NULL instead of column defaults, and
// takes a table lock for the duration of the batch.
func bulkOptions(rows int) mssql.BulkOptions {
	return mssql.BulkOptions{KeepNulls: true, Tablock: true, RowsPerBatch: rows}
}

// CopyFrom bulk-inserts one batch inside a transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (n int64, err error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			n = 0
		}
	}()

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(r.cfg.Table, bulkOptions(len(rows)), columns...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk into %s: %w", r.cfg.Table, err)
	}
	for i, row := range rows {
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	// An Exec without arguments flushes the bulk copy.
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("bulk finalize %s: %w", r.cfg.Table, err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mssql %s: %w", r.server, err)
	}
	return nil
}

// Truncate empties the configured table.
func (r *Repository) Truncate(ctx context.Context) error {
	if err := r.Exec(ctx, "TRUNCATE TABLE "+ddl.QuoteFQN(r.cfg.Table)); err != nil {
		return fmt.Errorf("truncate %s: %w", r.cfg.Table, err)
	}
	return nil
}
