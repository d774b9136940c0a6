package mssql

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

var _ storage.Store = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
}
