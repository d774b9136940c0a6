package duckdb

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srccompiler/internal/storage"
	"srccompiler/internal/storage/sqlstore"
)

func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	closed := false
	fake := &Repository{}
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		assert.Equal(t, "warehouse.duckdb", cfg.DSN)
		return fake, func() { closed = true }, nil
	}

	store, err := storage.New(context.Background(), storage.Config{Kind: "duckdb", DSN: "warehouse.duckdb"})
	require.NoError(t, err)
	w, ok := store.(*wrappedRepo)
	require.True(t, ok)
	assert.Same(t, fake, w.Repository)
	store.Close()
	assert.True(t, closed)
}

func TestDialectColumnsAndDates(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE table_schema = ? AND table_name = ?")).
		WithArgs("staging", "positions").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("account").AddRow("value_date"))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "staging"."positions" ("account", "value_date") VALUES (?, ?)`))
	prep.ExpectExec().
		WithArgs("A1", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sess, err := sqlstore.New(db, Dialect).Begin(ctx)
	require.NoError(t, err)
	cols, err := sess.Columns(ctx, "staging.positions")
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "value_date"}, cols)

	n, err := sess.Append(ctx, "staging.positions", cols, [][]any{{"A1", civil.Date{Year: 2023, Month: 1, Day: 1}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, sess.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
