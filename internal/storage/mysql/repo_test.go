package mysql

import (
	"context"
	"regexp"
	"testing"

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
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		return &Repository{}, func() { closed = true }, nil
	}

	store, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u:p@tcp(localhost:3306)/db"})
	require.NoError(t, err)
	store.Close()
	assert.True(t, closed)
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	_, _, err := NewRepository(context.Background(), Config{DSN: "no-slash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql: dsn")
}

func TestDialectClearAndInsert(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE table_schema = DATABASE() AND table_name = ?")).
		WithArgs("trades").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("trade_date"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `trades`")).WillReturnResult(sqlmock.NewResult(0, 5))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO `trades` (`trade_date`) VALUES (?)"))
	prep.ExpectExec().WithArgs("2022-12-31").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sess, err := sqlstore.New(db, Dialect).Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.Clear(ctx, "trades"))
	_, err = sess.Append(ctx, "trades", []string{"trade_date"}, [][]any{{civil.Date{Year: 2022, Month: 12, Day: 31}}})
	require.NoError(t, err)
	require.NoError(t, sess.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentQuoting(t *testing.T) {
	assert.Equal(t, "`a``b`", myIdent("a`b"))
}
