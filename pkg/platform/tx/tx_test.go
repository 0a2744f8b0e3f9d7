package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTx(t *testing.T) {
	t.Run("nil tx leaves context untouched", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, ctx, WithTx(ctx, nil))
		_, ok := From(ctx)
		assert.False(t, ok)
	})

	t.Run("stored tx is returned", func(t *testing.T) {
		tx := &sql.Tx{}
		ctx := WithTx(context.Background(), tx)
		got, ok := From(ctx)
		assert.True(t, ok)
		assert.Same(t, tx, got)
		assert.Same(t, tx, Executor(ctx, nil))
	})
}
