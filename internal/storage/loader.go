package storage

import (
	"context"
	"fmt"
	"time"

	"clinprep/internal/dataset"
	"clinprep/internal/ddl"

	"github.com/rs/zerolog"
)

// CopyFn abstracts a backend's bulk insert. It must cancel promptly when ctx
// is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadTable converts t to driver values in batches of batchSize rows and hands
// each batch to copyFn, in row order. It returns the rows reported by copyFn
// and stops at the first error or cancelled context. Values are typed per
// column with ddl.Cell so they match the DDL inferred for the same table.
func LoadTable(ctx context.Context, log zerolog.Logger, t *dataset.Table, batchSize int, copyFn CopyFn) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	logical := make([]string, t.NumCols())
	for j := range logical {
		logical[j] = ddl.LogicalType(t.ColumnAt(j))
	}
	columns := t.Names()
	rows := t.NumRows()

	var (
		total int64
		start = time.Now()
		batch = make([][]any, 0, min(batchSize, rows))
	)
	for lo := 0; lo < rows; lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+batchSize, rows)
		batch = batch[:0]
		for i := lo; i < hi; i++ {
			row := make([]any, len(columns))
			for j := range row {
				row[j] = ddl.Cell(logical[j], t.ColumnAt(j).Values[i])
			}
			batch = append(batch, row)
		}

		n, err := copyFn(ctx, columns, batch)
		total += n
		if err != nil {
			log.Error().Err(err).Int("from", lo).Int("to", hi).Int64("total", total).Msg("copy failed")
			return total, fmt.Errorf("rows %d..%d: %w", lo, hi-1, err)
		}
		log.Debug().
			Int("loaded", hi).
			Int("of", rows).
			Int64("total", total).
			Dur("elapsed", time.Since(start)).
			Msg("batch flushed")
	}
	return total, nil
}
