package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn abstracts a backend's bulk insert capability.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches splits rows into batches of batchSize and calls copyFn for each.
// It returns the total reported by copyFn and stops at the first error.
//
// A progress line is logged per successful batch.
func LoadBatches(
	ctx context.Context,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total   int64
		batches int64
		start   = time.Now()
	)
	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+batchSize, len(rows))

		n, err := copyFn(ctx, columns, rows[lo:hi])
		total += n
		if err != nil {
			log.Printf("loader: copy failed after=%d total=%d err=%v", n, total, err)
			return total, err
		}

		batches++
		log.Printf("batch #%d: inserted=%d total_inserted=%d elapsed=%s",
			batches, n, total, time.Since(start).Truncate(time.Millisecond))
	}
	return total, nil
}

// LoadOptions controls Load.
type LoadOptions struct {
	BatchSize       int
	AutoCreateTable bool
	Replace         bool
}

// Load opens the repository for cfg, prepares the table as requested by opt,
// and copies rows in batches. The repository is closed before returning.
func Load(ctx context.Context, cfg Config, opt LoadOptions, rows [][]any) (int64, error) {
	repo, err := New(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer repo.Close()

	if opt.AutoCreateTable {
		if err := EnsureTable(ctx, cfg, repo); err != nil {
			return 0, err
		}
	}
	if opt.Replace {
		if err := ClearTable(ctx, cfg, repo); err != nil {
			return 0, err
		}
	}
	return LoadBatches(ctx, cfg.Columns, rows, opt.BatchSize, repo.CopyFrom)
}
