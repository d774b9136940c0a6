package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-sql/civil"

	"srccompiler/internal/storage"
	"srccompiler/pkg/records"
)

func openMemory(t *testing.T) *Repository {
	t.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: ":memory:"})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(closeFn)
	return r
}

func TestNewRepositoryRejectsEmptyDSN(t *testing.T) {
	if _, _, err := NewRepository(context.Background(), Config{DSN: "  "}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := openMemory(t)
	if err := r.Exec(ctx, `CREATE TABLE positions (account TEXT, value_date TEXT, qty REAL, flag INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Exec(ctx, `INSERT INTO positions (account) VALUES ('stale')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sess, err := r.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	cols, err := sess.Columns(ctx, "positions")
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if len(cols) != 4 || cols[0] != "account" || cols[3] != "flag" {
		t.Fatalf("Columns = %v", cols)
	}
	if err := sess.Clear(ctx, "positions"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	f := records.NewFrame([]string{"account", "value_date", "qty", "unknown"}, 0)
	f.Rows = []records.Record{
		{"account": "A1", "value_date": records.NewDate(civil.Date{Year: 2023, Month: 3, Day: 15}), "qty": 1.5, "unknown": "x"},
		{"account": "A2", "value_date": records.Date{}, "qty": nil},
	}
	n, err := storage.Load(ctx, sess, "positions", f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 2 {
		t.Fatalf("Load n = %d, want 2", n)
	}
	if err := sess.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM positions`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2 (stale row cleared)", count)
	}
	var vd string
	if err := r.db.QueryRowContext(ctx, `SELECT value_date FROM positions WHERE account = 'A1'`).Scan(&vd); err != nil {
		t.Fatalf("select: %v", err)
	}
	if vd != "2023-03-15" {
		t.Fatalf("value_date = %q, want 2023-03-15", vd)
	}
}

func TestSessionClearMissingTableKeepsSession(t *testing.T) {
	ctx := context.Background()
	r := openMemory(t)
	if err := r.Exec(ctx, `CREATE TABLE t (a TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	sess, err := r.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := sess.Clear(ctx, "missing"); !errors.Is(err, storage.ErrNoTable) {
		t.Fatalf("Clear(missing) err = %v, want ErrNoTable", err)
	}
	if _, err := sess.Append(ctx, "t", []string{"a"}, [][]any{{"ok"}}); err != nil {
		t.Fatalf("Append after failed Clear: %v", err)
	}
	if err := sess.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestSessionRollbackDiscardsRows(t *testing.T) {
	ctx := context.Background()
	r := openMemory(t)
	if err := r.Exec(ctx, `CREATE TABLE t (a TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	sess, err := r.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := sess.Append(ctx, "main.t", []string{"a"}, [][]any{{"x"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := sess.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}
