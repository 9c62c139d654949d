package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distlimit/engine/pkg/ratelimit"
	ratelimitredis "github.com/distlimit/engine/pkg/ratelimit/redis"
)

// TestInstrumentedWrappers verifies the tracing/logging decorators conform
// to their interfaces and pass calls through to the underlying store
// faithfully, against a real (miniredis) backend rather than mocks.
func TestInstrumentedWrappers(t *testing.T) {
	client, _ := newTestClient(t)
	factory := ratelimitredis.NewFactory(client)
	ctx := context.Background()

	t.Run("Limiter", func(t *testing.T) {
		limiter := factory.InstrumentedForAlgorithm(ratelimit.AlgorithmTokenBucket)
		require.NotNil(t, limiter)

		d, err := limiter.Attempt(ctx, "instrumented-u", 2, 1.0, 0)
		require.NoError(t, err)
		assert.True(t, d.Allowed())

		count, err := limiter.Attempts(ctx, "instrumented-u", time.Second)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, int64(0))

		remaining, err := limiter.Remaining(ctx, "instrumented-u", 2, 1.0, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, remaining, int64(0))

		_, err = limiter.AvailableIn(ctx, "instrumented-u", 2, 1.0, 0)
		require.NoError(t, err)

		n, err := limiter.Reset(ctx, "instrumented-u")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(0))

		// An invalid argument must still surface as an error through the
		// wrapper's error-path logging and span recording.
		_, err = limiter.Attempt(ctx, "instrumented-u", 0, 1.0, 0)
		assert.Error(t, err)
	})

	t.Run("Gate", func(t *testing.T) {
		gate := factory.InstrumentedGate()

		ok, occupancy, err := gate.TryAcquire(ctx, "instrumented-k", "req1", 1, 10*time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.EqualValues(t, 1, occupancy)

		// A second acquire against an already-exhausted gate exercises the
		// wrapper's "gate exhausted" logging path.
		ok2, _, err := gate.TryAcquire(ctx, "instrumented-k", "req2", 1, 10*time.Second)
		require.NoError(t, err)
		assert.False(t, ok2)

		current, err := gate.Current(ctx, "instrumented-k", 10*time.Second)
		require.NoError(t, err)
		assert.EqualValues(t, 1, current)

		require.NoError(t, gate.Release(ctx, "instrumented-k", "req1"))

		removed, err := gate.Cleanup(ctx, "instrumented-k", 10*time.Second)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, removed, int64(0))
	})
}
