// Package storage persists prepared tables. Database backends register a
// Repository factory and a DDL bootstrapper from their init functions; file
// sinks register a SinkFactory. Open picks whichever matches storage.kind.
package storage

import (
	"context"
	"fmt"
)

// Repository is the minimal database contract used by the table loader.
type Repository interface {
	// CopyFrom bulk-inserts rows aligned to columns and reports how many
	// rows were written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Exec runs one statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// Truncate removes every row of the configured table.
	Truncate(ctx context.Context) error

	Close()
}

// Config is the backend-neutral repository configuration.
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

// New opens a Repository through the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	f, ok := repos.get(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
