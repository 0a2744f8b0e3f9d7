package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"foodgram/pkg/domain"
)

func TestPrincipal(t *testing.T) {
	t.Run("anonymous by default", func(t *testing.T) {
		ctx := context.Background()
		assert.False(t, PrincipalFrom(ctx).Authenticated())
		assert.True(t, UserID(ctx).IsZero())
		assert.False(t, IsStaff(ctx))
	})

	t.Run("round trips injected principal", func(t *testing.T) {
		ctx := WithPrincipal(context.Background(), Principal{UserID: domain.UserID(3), IsStaff: true})
		assert.True(t, PrincipalFrom(ctx).Authenticated())
		assert.Equal(t, domain.UserID(3), UserID(ctx))
		assert.True(t, IsStaff(ctx))
	})
}

func TestNow(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), fixed)
	assert.Equal(t, fixed, Now(ctx))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}
