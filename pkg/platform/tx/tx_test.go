package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTxNil(t *testing.T) {
	ctx := WithTx(context.Background(), nil)
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestFromReturnsStoredTx(t *testing.T) {
	sqlTx := &sql.Tx{}
	got, ok := From(WithTx(context.Background(), sqlTx))
	require.True(t, ok)
	assert.Same(t, sqlTx, got)
}

func TestNopRunner(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := NopRunner{}.RunInTx(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestSQLRunnerReusesOuterTx(t *testing.T) {
	outer := &sql.Tx{}
	r := NewSQLRunner(nil)
	err := r.RunInTx(WithTx(context.Background(), outer), func(ctx context.Context) error {
		got, ok := From(ctx)
		require.True(t, ok)
		assert.Same(t, outer, got)
		return nil
	})
	require.NoError(t, err)
}
