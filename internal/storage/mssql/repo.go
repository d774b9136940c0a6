// Package mssql implements a Microsoft SQL Server storage.Store. Rows are
// written with the go-mssqldb bulk copy API inside the session transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"srccompiler/internal/storage/sqlstore"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Dialect describes SQL Server to sqlstore. Unqualified tables resolve
// against the caller's default schema.
var Dialect = sqlstore.Dialect{
	Name:        "mssql",
	Quote:       msIdent,
	Placeholder: sqlstore.AtP,
	ColumnsQuery: func(schema, table string) (string, []any) {
		if schema == "" {
			return `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1
ORDER BY ORDINAL_POSITION`, []any{table}
		}
		return `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
ORDER BY ORDINAL_POSITION`, []any{schema, table}
	},
	// Bulk copy has no civil.Date support.
	Convert: func(v any) any {
		if d, ok := v.(civil.Date); ok {
			return d.In(time.UTC)
		}
		return v
	},
	Append: bulkCopy,
}

// Repository is an MSSQL-backed storage.Store.
type Repository struct {
	*sqlstore.DB
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql: dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mssql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mssql: ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{DB: sqlstore.New(db, Dialect)}, closeFn, nil
}

// bulkCopy streams rows through mssql.CopyIn. The driver splices the table
// name into its statements verbatim, so it is quoted here; column names are
// matched against table metadata and stay bare.
func bulkCopy(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(msFQN(table), mssql.BulkOptions{}, columns...))
	if err != nil {
		return 0, fmt.Errorf("mssql: prepare bulk copy: %w", err)
	}
	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("mssql: bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx) // flush
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("mssql: bulk finalize: %w", err)
	}
	copied, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mssql: rows affected: %w", err)
	}
	return copied, nil
}

// msIdent quotes an identifier using SQL Server brackets, escaping any
// closing bracket by doubling it.
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes a possibly schema-qualified name like "dbo.positions" to
// "[dbo].[positions]".
func msFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}
