// Package sqlite implements a SQLite-backed storage.Store using database/sql.
// Rows are written with a prepared INSERT inside the session transaction.
// FQN values such as "main.events" are accepted; the prefix selects the
// attached database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	_ "modernc.org/sqlite"

	"srccompiler/internal/storage/sqlstore"
)

// Dialect describes SQLite to sqlstore.
var Dialect = sqlstore.Dialect{
	Name:        "sqlite",
	Quote:       sqlstore.QuoteDouble,
	Placeholder: sqlstore.QuestionMark,
	ColumnsQuery: func(schema, table string) (string, []any) {
		if schema == "" {
			return "SELECT name FROM pragma_table_info(?) ORDER BY cid", []any{table}
		}
		return "SELECT name FROM pragma_table_info(?, ?) ORDER BY cid", []any{table, schema}
	},
	Convert: func(v any) any {
		if d, ok := v.(civil.Date); ok {
			return d.String()
		}
		return v
	},
}

// Repository is a SQLite-backed storage.Store.
type Repository struct {
	*sqlstore.DB
	db *sql.DB
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{DB: sqlstore.New(db, Dialect), db: db}, closeFn, nil
}

// Exec executes an arbitrary SQL statement (typically DDL) outside any
// session.
func (r *Repository) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}
