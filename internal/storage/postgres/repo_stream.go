package postgres

import (
	"context"
	"fmt"
)

// CopyFn abstracts the COPY operation. In production it calls pgx's CopyFrom;
// in tests a fake can verify batching behavior.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// copyBatches splits rows into batches of at most batchSize and calls copyFn
// for each. It returns the total reported by copyFn and the first error.
func copyBatches(ctx context.Context, columns []string, rows [][]any, batchSize int, copyFn CopyFn) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var total int64
	for start := 0; start < len(rows); start += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := min(start+batchSize, len(rows))
		n, err := copyFn(ctx, columns, rows[start:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
