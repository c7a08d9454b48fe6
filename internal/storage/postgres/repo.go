// Package postgres implements a Postgres-backed storage.Repository on pgx.
// Batches are loaded with the COPY protocol.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinprep/internal/dataset"
	"clinprep/internal/storage"
	"clinprep/internal/storage/postgres/ddl"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := open(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL("postgres", func(ctx context.Context, repo storage.Repository, table string, t *dataset.Table) error {
		return ddl.EnsureTable(ctx, repo, table, t)
	})
}

// open is a test hook that points to Open by default.
var open = Open

var _ storage.Repository = (*Repository)(nil)

// Config holds Postgres repository configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // optionally schema-qualified, e.g. "public.admissions"
}

// Repository copies prepared rows into one Postgres table.
type Repository struct {
	pool  *pgxpool.Pool
	cfg   Config
	ident pgx.Identifier
}

// Open connects a pool and checks it with a ping.
func Open(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	ident := identifier(cfg.Table)
	if len(ident) == 0 || len(ident) > 2 {
		return nil, fmt.Errorf("postgres: table %q must be <table> or <schema>.<table>", cfg.Table)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg, ident: ident}, nil
}

// Close closes the pool.
func (r *Repository) Close() { r.pool.Close() }

// identifier splits the configured table into a pgx.Identifier.
func identifier(table string) pgx.Identifier {
	var id pgx.Identifier
	for _, p := range strings.Split(table, ".") {
		if p = strings.TrimSpace(p); p != "" {
			id = append(id, p)
		}
	}
	return id
}

// CopyFrom streams one batch into the table with COPY. Constraint failures
// carry the server's detail line, which names the offending value.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, r.ident, columns, pgx.CopyFromRows(rows))
	if err == nil {
		return n, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return n, fmt.Errorf("copy into %s: %s (%s): %w", r.cfg.Table, pgErr.Detail, pgErr.SQLState(), err)
	}
	return n, fmt.Errorf("copy into %s: %w", r.cfg.Table, err)
}

// Exec runs one statement on the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// Truncate empties the configured table.
func (r *Repository) Truncate(ctx context.Context) error {
	return r.Exec(ctx, "TRUNCATE TABLE "+ddl.Dialect.QuoteFQN(r.cfg.Table))
}
