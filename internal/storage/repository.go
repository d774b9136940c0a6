// Package storage defines the destination contracts of the compiler and a
// registry of backends keyed by kind.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownKind is returned by New for an unregistered backend kind.
var ErrUnknownKind = errors.New("storage: unknown kind")

// ErrNoTable is returned by Session.Clear when the table does not exist.
var ErrNoTable = errors.New("storage: no such table")

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Store is an open destination database.
type Store interface {
	// Begin starts a unit of work. Nothing appended through the session is
	// visible to other readers until Commit.
	Begin(ctx context.Context) (Session, error)
	Close()
}

// Session is one transaction against a Store.
type Session interface {
	// Columns lists the columns of table in schema order. A missing table
	// yields no columns and no error.
	Columns(ctx context.Context, table string) ([]string, error)
	// Append inserts rows aligned to columns and returns how many were
	// written.
	Append(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	// Clear deletes every row of table. A failed Clear leaves the session
	// usable.
	Clear(ctx context.Context, table string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It is meant to be called
// from a backend package's init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		panic("storage: Register factory is nil for " + kind)
	}
	factories[kind] = f
}

// New opens the backend registered under cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %v)", ErrUnknownKind, cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
