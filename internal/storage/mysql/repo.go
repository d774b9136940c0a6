// Package mysql implements a MySQL-backed storage.Store. Unqualified tables
// resolve against the database named in the DSN.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/golang-sql/civil"

	"srccompiler/internal/storage/sqlstore"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN uses the go-sql-driver format, e.g. "user:pass@tcp(host:3306)/db".
	DSN string
}

// Dialect describes MySQL to sqlstore.
var Dialect = sqlstore.Dialect{
	Name:        "mysql",
	Quote:       myIdent,
	Placeholder: sqlstore.QuestionMark,
	ColumnsQuery: func(schema, table string) (string, []any) {
		if schema == "" {
			return `SELECT column_name FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`, []any{table}
		}
		return `SELECT column_name FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`, []any{schema, table}
	},
	Convert: func(v any) any {
		if d, ok := v.(civil.Date); ok {
			return d.String()
		}
		return v
	},
}

// Repository is a MySQL-backed storage.Store.
type Repository struct {
	*sqlstore.DB
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := gomysql.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mysql: dsn: %w", err)
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{DB: sqlstore.New(db, Dialect)}, closeFn, nil
}

// myIdent quotes an identifier with backticks.
func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
