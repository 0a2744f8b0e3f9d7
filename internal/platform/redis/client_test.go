package redis

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/platform/config"
)

func TestKey(t *testing.T) {
	c := Wrap(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "foodgram:")
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "foodgram:trl:jti", c.Key("trl", "jti"))
	assert.Equal(t, "foodgram:health", c.Key("health"))

	bare := Wrap(c.Client, "")
	assert.Equal(t, "trl:jti", bare.Key("trl", "jti"))
}

func TestNew(t *testing.T) {
	t.Run("no URL disables redis", func(t *testing.T) {
		c, err := New(context.Background(), config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("malformed URL", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{URL: "http://not-redis"})
		assert.ErrorContains(t, err, "parse redis URL")
	})
}
