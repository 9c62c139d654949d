package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ratelimitredis "github.com/distlimit/engine/pkg/ratelimit/redis"
	"github.com/distlimit/engine/pkg/validator"
)

// TestTokenBucket_S2 exercises scenario S2: burst=10, rate=1.0; consume
// 10, sleep past the anti-thrash floor, expect exactly 2 more allowed.
func TestTokenBucket_S2(t *testing.T) {
	client, mr := newTestClient(t)
	limiter := ratelimitredis.NewTokenBucketLimiter(client, validator.New())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		d, err := limiter.Attempt(ctx, "u", 10, 1.0, 0)
		require.NoError(t, err)
		require.True(t, d.Allowed())
	}
	d, err := limiter.Attempt(ctx, "u", 10, 1.0, 0)
	require.NoError(t, err)
	require.False(t, d.Allowed())

	mr.SetTime(time.Now().Add(2100 * time.Millisecond))

	allowed := 0
	for i := 0; i < 4; i++ {
		d, err := limiter.Attempt(ctx, "u", 10, 1.0, 0)
		require.NoError(t, err)
		if d.Allowed() {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed, "2s at rate=1.0 should refill exactly 2 tokens")
}

// TestTokenBucket_S6 is the burst-capacity regression: 150 rapid
// back-to-back attempts at burst=100, rate=8.0 must not admit
// meaningfully more than burst despite the high rate.
func TestTokenBucket_S6(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := ratelimitredis.NewTokenBucketLimiter(client, validator.New())
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 150; i++ {
		d, err := limiter.Attempt(ctx, "u", 100, 8.0, 0)
		require.NoError(t, err)
		if d.Allowed() {
			allowed++
		}
	}
	assert.LessOrEqual(t, allowed, 110, "anti-thrash floor must bound admissions near burst regardless of call frequency")
}

func TestTokenBucket_KeyIsolation(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := ratelimitredis.NewTokenBucketLimiter(client, validator.New())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Attempt(ctx, "k1", 3, 1, 0)
		require.NoError(t, err)
	}
	d, err := limiter.Attempt(ctx, "k2", 3, 1, 0)
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}
