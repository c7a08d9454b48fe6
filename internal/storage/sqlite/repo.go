// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc driver. Each batch is inserted with one
// prepared statement inside its own transaction, so a failed batch leaves no
// rows behind.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clinprep/internal/dataset"
	"clinprep/internal/storage"
	"clinprep/internal/storage/sqlite/ddl"

	_ "modernc.org/sqlite"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := open(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL("sqlite", func(ctx context.Context, repo storage.Repository, table string, t *dataset.Table) error {
		return ddl.EnsureTable(ctx, repo, table, t)
	})
}

// open is a test hook that points to Open by default.
var open = Open

var _ storage.Repository = (*Repository)(nil)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a file path or URI, e.g. "out/admissions.db" or
	// "file:prep.db?_pragma=busy_timeout(5000)". ":memory:" works for tests.
	DSN string

	// Table is the target table.
	Table string
}

// Repository writes prepared rows into one SQLite table.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// Open opens the database. The pool is limited to one connection so
// in-memory databases stay visible across calls and writes never contend.
func Open(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", cfg.DSN, err)
	}
	return &Repository{db: db, cfg: cfg}, nil
}

// Close releases the database handle.
func (r *Repository) Close() { _ = r.db.Close() }

// insertSQL renders the parameterized INSERT for columns.
func (r *Repository) insertSQL(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ddl.QuoteIdent(c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.Dialect.QuoteFQN(r.cfg.Table), strings.Join(quoted, ", "), marks)
}

// CopyFrom inserts one batch atomically. Every row must have one value per
// column.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (n int64, err error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			n = 0
		}
	}()

	stmt, err := tx.PrepareContext(ctx, r.insertSQL(columns))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert into %s: %w", r.cfg.Table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("sqlite: CopyFrom: row %d has %d values for %d columns", i, len(row), len(columns))
		}
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
		n++
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// Exec runs one statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Truncate deletes every row; SQLite has no TRUNCATE statement.
func (r *Repository) Truncate(ctx context.Context) error {
	return r.Exec(ctx, "DELETE FROM "+ddl.Dialect.QuoteFQN(r.cfg.Table))
}
