// Package duckdb implements a DuckDB-backed storage.Store. The DSN is a
// database file path; an empty DSN or ":memory:" opens an in-memory database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-sql/civil"
	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"srccompiler/internal/storage/sqlstore"
)

// Config holds DuckDB repository configuration.
type Config struct {
	DSN string
}

// Dialect describes DuckDB to sqlstore. Unqualified tables resolve against
// the current schema.
var Dialect = sqlstore.Dialect{
	Name:        "duckdb",
	Quote:       sqlstore.QuoteDouble,
	Placeholder: sqlstore.QuestionMark,
	ColumnsQuery: func(schema, table string) (string, []any) {
		if schema == "" {
			return `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ?
ORDER BY ordinal_position`, []any{table}
		}
		return `SELECT column_name FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`, []any{schema, table}
	},
	Convert: func(v any) any {
		if d, ok := v.(civil.Date); ok {
			return d.In(time.UTC)
		}
		return v
	},
}

// Repository is a DuckDB-backed storage.Store.
type Repository struct {
	*sqlstore.DB
}

// NewRepository opens the database and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	path := cfg.DSN
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("duckdb: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{DB: sqlstore.New(db, Dialect)}, closeFn, nil
}
