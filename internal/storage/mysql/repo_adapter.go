package mysql

import (
	"context"

	"srccompiler/internal/storage"
)

// newRepository opens the backend; tests swap it for a stub.
var newRepository = NewRepository

var _ storage.Store = (*wrappedRepo)(nil)

// init registers the "mysql" backend with the factory.
func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
}

// wrappedRepo pairs a Repository with the cleanup returned by
// NewRepository so it satisfies storage.Store.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close closes the underlying connection pool.
func (w *wrappedRepo) Close() { w.closeFn() }
