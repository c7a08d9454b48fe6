package storage

import (
	"context"
	"fmt"

	"clinprep/internal/config"
	"clinprep/internal/dataset"

	"github.com/rs/zerolog"
)

// DefaultBatchSize is used when runtime.batch_size is unset.
const DefaultBatchSize = 5000

// Sink writes a prepared table to its destination.
type Sink interface {
	// Write persists t and returns the number of rows written.
	Write(ctx context.Context, t *dataset.Table) (int64, error)
	Close() error
}

// Options carries ambient settings for sinks.
type Options struct {
	Logger    zerolog.Logger
	BatchSize int
}

// SinkFactory builds a file-style sink for cfg.
type SinkFactory func(cfg config.Storage, opt Options) (Sink, error)

// Open returns the sink for cfg.Kind. File kinds use their SinkFactory;
// database kinds open a Repository and load through LoadTable.
func Open(ctx context.Context, cfg config.Storage, opt Options) (Sink, error) {
	if opt.BatchSize <= 0 {
		opt.BatchSize = DefaultBatchSize
	}
	if f, ok := sinks.get(cfg.Kind); ok {
		return f(cfg, opt)
	}
	if cfg.DB.Table == "" {
		return nil, fmt.Errorf("storage.db.table is required for storage.kind=%s", cfg.Kind)
	}
	repo, err := New(ctx, Config{Kind: cfg.Kind, DSN: cfg.DB.DSN, Table: cfg.DB.Table})
	if err != nil {
		return nil, err
	}
	return &dbSink{kind: cfg.Kind, cfg: cfg.DB, repo: repo, opt: opt}, nil
}

type dbSink struct {
	kind string
	cfg  config.DBConfig
	repo Repository
	opt  Options
}

func (s *dbSink) Write(ctx context.Context, t *dataset.Table) (int64, error) {
	if s.cfg.AutoCreateTable {
		if err := EnsureTable(ctx, s.kind, s.repo, s.cfg.Table, t); err != nil {
			return 0, fmt.Errorf("ensure table %s: %w", s.cfg.Table, err)
		}
	}
	if s.cfg.Truncate {
		if err := s.repo.Truncate(ctx); err != nil {
			return 0, fmt.Errorf("truncate %s: %w", s.cfg.Table, err)
		}
	}

	n, err := LoadTable(ctx, s.opt.Logger, t, s.opt.BatchSize, s.repo.CopyFrom)
	if err != nil {
		return n, fmt.Errorf("load %s: %w", s.cfg.Table, err)
	}
	return n, nil
}

func (s *dbSink) Close() error {
	s.repo.Close()
	return nil
}
