// Package sqlstore implements storage.Session on top of database/sql. Each
// backend supplies a Dialect describing its quoting, placeholders, schema
// introspection and value conversion.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"srccompiler/internal/storage"
)

// AppendFunc inserts rows inside tx. Backends with a bulk API provide one;
// otherwise a prepared INSERT is used.
type AppendFunc func(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int64, error)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	Name string
	// Quote quotes one identifier part.
	Quote func(ident string) string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// ColumnsQuery returns a query whose single result column lists the
	// columns of schema.table in order. schema may be empty.
	ColumnsQuery func(schema, table string) (string, []any)
	// Convert maps a plain value (see records.Plain) to a driver value.
	// Nil means identity.
	Convert func(v any) any
	// Append overrides the prepared INSERT path when set.
	Append AppendFunc
}

// QuoteFQN quotes every dot-separated part of name.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Quote(p)
	}
	return strings.Join(parts, ".")
}

// DB is a database/sql handle bound to a Dialect. The caller owns the
// handle and closes it.
type DB struct {
	db *sql.DB
	d  Dialect
}

// New binds db to d.
func New(db *sql.DB, d Dialect) *DB { return &DB{db: db, d: d} }

// Begin starts a transaction.
func (x *DB) Begin(ctx context.Context) (storage.Session, error) {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", x.d.Name, err)
	}
	return &Session{tx: tx, d: x.d}, nil
}

// Session is one transaction.
type Session struct {
	tx *sql.Tx
	d  Dialect
}

var _ storage.Session = (*Session)(nil)

// Columns lists the destination columns of table.
func (s *Session) Columns(ctx context.Context, table string) ([]string, error) {
	schema, name := storage.SplitFQN(table)
	q, args := s.d.ColumnsQuery(schema, name)
	rows, err := s.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: columns %s: %w", s.d.Name, table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%s: scan column: %w", s.d.Name, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Append inserts rows. Values are converted through the dialect first.
func (s *Session) Append(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: append %s: columns must not be empty", s.d.Name, table)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("%s: append %s: row length %d != columns length %d", s.d.Name, table, len(row), len(columns))
		}
		if s.d.Convert != nil {
			for i, v := range row {
				row[i] = s.d.Convert(v)
			}
		}
	}
	if s.d.Append != nil {
		return s.d.Append(ctx, s.tx, table, columns, rows)
	}
	return s.insert(ctx, table, columns, rows)
}

func (s *Session) insert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	quoted := make([]string, len(columns))
	ph := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = s.d.Quote(c)
		ph[i] = s.d.Placeholder(i + 1)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.d.QuoteFQN(table), strings.Join(quoted, ", "), strings.Join(ph, ", "))

	stmt, err := s.tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("%s: prepare insert: %w", s.d.Name, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("%s: insert: %w", s.d.Name, err)
		}
		inserted++
	}
	return inserted, nil
}

// Clear deletes all rows of table. A table without columns is treated as
// missing and reported as storage.ErrNoTable without touching it, so the
// transaction stays healthy on backends that abort on statement errors.
func (s *Session) Clear(ctx context.Context, table string) error {
	cols, err := s.Columns(ctx, table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("%s: clear %s: %w", s.d.Name, table, storage.ErrNoTable)
	}
	if _, err := s.tx.ExecContext(ctx, "DELETE FROM "+s.d.QuoteFQN(table)); err != nil {
		return fmt.Errorf("%s: clear %s: %w", s.d.Name, table, err)
	}
	return nil
}

// Commit commits the transaction.
func (s *Session) Commit(context.Context) error {
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.d.Name, err)
	}
	return nil
}

// Rollback aborts the transaction.
func (s *Session) Rollback(context.Context) error {
	if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("%s: rollback: %w", s.d.Name, err)
	}
	return nil
}

// QuestionMark renders "?" placeholders.
func QuestionMark(int) string { return "?" }

// AtP renders "@pN" placeholders.
func AtP(n int) string { return fmt.Sprintf("@p%d", n) }

// QuoteDouble quotes with ANSI double quotes.
func QuoteDouble(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
