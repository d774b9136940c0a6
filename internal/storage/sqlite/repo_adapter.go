package sqlite

import (
	"context"

	"srccompiler/internal/storage"
)

// newRepository opens the backend; tests swap it for a stub.
var newRepository = NewRepository

// wrappedRepo pairs a Repository with the cleanup returned by
// NewRepository so it satisfies storage.Store.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Store = (*wrappedRepo)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
}
