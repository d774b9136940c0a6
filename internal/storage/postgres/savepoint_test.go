package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx records savepoint traffic. Methods it does not override panic via
// the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	copyErr    error
	copied     int
	savepoints []*fakeTx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	sp := &fakeTx{copyErr: f.copyErr}
	f.savepoints = append(f.savepoints, sp)
	return sp, nil
}

func (f *fakeTx) Commit(context.Context) error   { f.committed = true; return nil }
func (f *fakeTx) Rollback(context.Context) error { f.rolledBack = true; return nil }

func (f *fakeTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	var n int64
	for src.Next() {
		n++
	}
	f.copied += int(n)
	return n, nil
}

func TestAppendFailureRollsBackOnlyItsSavepoint(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTx{}
	s := &session{tx: tx}

	n, err := s.Append(ctx, "positions", []string{"isin"}, [][]any{{"US0001"}, {"US0002"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	tx.copyErr = errors.New("invalid input syntax")
	n, err = s.Append(ctx, "positions", []string{"isin"}, [][]any{{"bad"}})
	require.ErrorContains(t, err, "invalid input syntax")
	assert.Zero(t, n)

	require.Len(t, tx.savepoints, 2)
	assert.True(t, tx.savepoints[0].committed)
	assert.Equal(t, 2, tx.savepoints[0].copied)
	assert.True(t, tx.savepoints[1].rolledBack)
	assert.False(t, tx.savepoints[1].committed)

	// the outer transaction is untouched and still commits the first file
	assert.False(t, tx.rolledBack)
	require.NoError(t, s.Commit(ctx))
	assert.True(t, tx.committed)
}

func TestSavepointReleasesOnSuccess(t *testing.T) {
	tx := &fakeTx{}
	called := false
	err := savepoint(context.Background(), tx, func(sp pgx.Tx) error {
		called = true
		assert.NotSame(t, tx, sp)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	require.Len(t, tx.savepoints, 1)
	assert.True(t, tx.savepoints[0].committed)
	assert.False(t, tx.savepoints[0].rolledBack)
}
