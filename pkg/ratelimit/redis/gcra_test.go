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

func TestGCRA_AdmitsExactlyCapWithinWindow(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := ratelimitredis.NewGCRALimiter(client, validator.New())
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 10; i++ {
		d, err := limiter.Attempt(ctx, "u", 0, 5, 2*time.Second)
		require.NoError(t, err)
		if d.Allowed() {
			allowed++
		}
	}
	assert.Equal(t, 10, allowed, "floor(5*2)=10 admissions should fit in a fresh window")

	d, err := limiter.Attempt(ctx, "u", 0, 5, 2*time.Second)
	require.NoError(t, err)
	assert.False(t, d.Allowed())
}

func TestGCRA_KeyIsolation(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := ratelimitredis.NewGCRALimiter(client, validator.New())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := limiter.Attempt(ctx, "k1", 0, 5, 60*time.Second)
		require.NoError(t, err)
	}
	d, err := limiter.Attempt(ctx, "k2", 0, 5, 60*time.Second)
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}

func TestGCRA_ResetIdempotent(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := ratelimitredis.NewGCRALimiter(client, validator.New())
	ctx := context.Background()

	_, err := limiter.Attempt(ctx, "u", 0, 5, 60*time.Second)
	require.NoError(t, err)

	_, err = limiter.Reset(ctx, "u")
	require.NoError(t, err)
	_, err = limiter.Reset(ctx, "u")
	require.NoError(t, err)

	n, err := limiter.Attempts(ctx, "u", 60*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
