// Package postgres implements a Postgres storage.Store using pgx v5. A session
// is one pgx transaction; rows are written with COPY.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"srccompiler/internal/storage"
)

// copyBatchSize bounds the rows sent per COPY.
const copyBatchSize = 5000

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed storage.Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool}, closeFn, nil
}

// Begin starts a transaction.
func (r *Repository) Begin(ctx context.Context) (storage.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	return &session{tx: tx}, nil
}

type session struct {
	tx pgx.Tx
}

func (s *session) Columns(ctx context.Context, table string) ([]string, error) {
	schema, name := storage.SplitFQN(table)
	q := `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`
	args := []any{name}
	if schema != "" {
		q = `SELECT column_name FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`
		args = []any{schema, name}
	}
	rows, err := s.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: columns %s: %w", table, err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: columns %s: %w", table, err)
	}
	return cols, nil
}

func (s *session) Append(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: append %s: columns must not be empty", table)
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("postgres: append %s: row length %d != columns length %d", table, len(row), len(columns))
		}
		for i, v := range row {
			row[i] = toCopyVal(v)
		}
	}
	ident := splitFQN(table)
	var total int64
	err := savepoint(ctx, s.tx, func(sp pgx.Tx) error {
		var err error
		total, err = copyBatches(ctx, columns, rows, copyBatchSize, func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
			n, err := sp.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(batch))
			if err != nil {
				return n, copyError(err)
			}
			return n, nil
		})
		return err
	})
	if err != nil {
		// the savepoint rolled back every batch of this call
		return 0, err
	}
	return total, nil
}

func (s *session) Clear(ctx context.Context, table string) error {
	cols, err := s.Columns(ctx, table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("postgres: clear %s: %w", table, storage.ErrNoTable)
	}
	return savepoint(ctx, s.tx, func(sp pgx.Tx) error {
		if _, err := sp.Exec(ctx, "DELETE FROM "+pgFQN(table)); err != nil {
			return fmt.Errorf("postgres: clear %s: %w", table, err)
		}
		return nil
	})
}

// savepoint runs fn in a nested transaction. A failing statement aborts a
// Postgres transaction, so each write gets its own savepoint and a failure
// rolls back only that write; the enclosing transaction stays usable.
func savepoint(ctx context.Context, tx pgx.Tx, fn func(sp pgx.Tx) error) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: savepoint: %w", err)
	}
	if err := fn(sp); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: release savepoint: %w", err)
	}
	return nil
}

func (s *session) Commit(ctx context.Context) error {
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (s *session) Rollback(ctx context.Context) error {
	if err := s.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

// copyError surfaces the server detail of a failed COPY.
func copyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("postgres: copy: %s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
	}
	return fmt.Errorf("postgres: copy: %w", err)
}

// toCopyVal maps plain values to types pgx encodes directly.
func toCopyVal(v any) any {
	if d, ok := v.(civil.Date); ok {
		return d.In(time.UTC)
	}
	return v
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.positions" to
// "public"."positions". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
