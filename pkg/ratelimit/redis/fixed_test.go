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

// TestFixedWindow_S1 exercises scenario S1: ten admissions fill a
// burst=10 window, retries_left counts down, the eleventh is denied.
func TestFixedWindow_S1(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := ratelimitredis.NewFixedWindowLimiter(client, validator.New())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		d, err := limiter.Attempt(ctx, "u", 10, 1, 60*time.Second)
		require.NoError(t, err)
		require.True(t, d.Allowed())
		assert.EqualValues(t, 9-i, d.RetriesLeft)
	}

	d, err := limiter.Attempt(ctx, "u", 10, 1, 60*time.Second)
	require.NoError(t, err)
	assert.False(t, d.Allowed())
	assert.Greater(t, d.RetryAfterSeconds, int64(0))
	assert.LessOrEqual(t, d.RetryAfterSeconds, int64(60))
}

func TestFixedWindow_ResetClearsCurrentSlot(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := ratelimitredis.NewFixedWindowLimiter(client, validator.New())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Attempt(ctx, "u", 3, 1, 60*time.Second)
		require.NoError(t, err)
	}
	d, err := limiter.Attempt(ctx, "u", 3, 1, 60*time.Second)
	require.NoError(t, err)
	require.False(t, d.Allowed())

	_, err = limiter.Reset(ctx, "u")
	require.NoError(t, err)
	_, err = limiter.Reset(ctx, "u")
	require.NoError(t, err, "reset must be idempotent")

	d, err = limiter.Attempt(ctx, "u", 3, 1, 60*time.Second)
	require.NoError(t, err)
	assert.True(t, d.Allowed(), "a reset key behaves as fresh")
}

func TestFixedWindow_KeyIsolation(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := ratelimitredis.NewFixedWindowLimiter(client, validator.New())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Attempt(ctx, "k1", 2, 1, 60*time.Second)
		require.NoError(t, err)
	}
	d, err := limiter.Attempt(ctx, "k2", 2, 1, 60*time.Second)
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}
