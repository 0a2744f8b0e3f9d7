package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "foodgram_is_token_revoked_duration_ms",
		Help:    "Latency of token revocation checks in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

// DefaultRedisKeyPrefix is used when no prefix option is given.
const DefaultRedisKeyPrefix = "foodgram:trl:jti:"

// RedisTRL is a Redis-backed token revocation list shared by every instance.
// Keys expire together with the token, so no purge is needed.
type RedisTRL struct {
	client *redis.Client
	prefix string
}

type RedisTRLOption func(*RedisTRL)

// WithKeyPrefix sets the prefix every revoked jti is stored under.
func WithKeyPrefix(prefix string) RedisTRLOption {
	return func(t *RedisTRL) {
		if prefix != "" {
			t.prefix = prefix
		}
	}
}

// NewRedisTRL constructs a Redis-backed token revocation list.
func NewRedisTRL(client *redis.Client, opts ...RedisTRLOption) *RedisTRL {
	t := &RedisTRL{client: client, prefix: DefaultRedisKeyPrefix}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RevokeToken adds a token to the revocation list with TTL.
func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	// The value is a marker; key existence is what matters.
	return t.client.Set(ctx, t.prefix+jti, "1", ttl).Err()
}

// IsRevoked checks if a token is in the revocation list.
func (t *RedisTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	_, err := t.client.Get(ctx, t.prefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired is a no-op; Redis expires keys itself.
func (t *RedisTRL) PurgeExpired(context.Context) (int, error) {
	return 0, nil
}
