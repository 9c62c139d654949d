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

// TestGate_S3 exercises scenario S3: with max=2, two acquisitions
// succeed, a third is rejected, and releasing one frees a slot.
func TestGate_S3(t *testing.T) {
	client, _ := newTestClient(t)
	gate := ratelimitredis.NewConcurrencyGate(client, validator.New())
	ctx := context.Background()

	ok1, occ1, err := gate.TryAcquire(ctx, "k", "req1", 2, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok1)
	assert.EqualValues(t, 1, occ1)

	ok2, occ2, err := gate.TryAcquire(ctx, "k", "req2", 2, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok2)
	assert.EqualValues(t, 2, occ2)

	ok3, occ3, err := gate.TryAcquire(ctx, "k", "req3", 2, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok3)
	assert.EqualValues(t, 2, occ3)

	require.NoError(t, gate.Release(ctx, "k", "req1"))

	ok3b, _, err := gate.TryAcquire(ctx, "k", "req3", 2, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok3b, "releasing req1 must free a slot for req3")
}

// TestGate_S5 exercises scenario S5: after timeout elapses with no
// release, current reads 0 and a fresh acquire succeeds.
func TestGate_S5(t *testing.T) {
	client, mr := newTestClient(t)
	gate := ratelimitredis.NewConcurrencyGate(client, validator.New())
	ctx := context.Background()

	_, _, err := gate.TryAcquire(ctx, "k", "req1", 2, 1*time.Second)
	require.NoError(t, err)
	_, _, err = gate.TryAcquire(ctx, "k", "req2", 2, 1*time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	current, err := gate.Current(ctx, "k", 1*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 0, current)

	ok, _, err := gate.TryAcquire(ctx, "k", "req3", 2, 1*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_ReleaseOfUnknownIDIsNoop(t *testing.T) {
	client, _ := newTestClient(t)
	gate := ratelimitredis.NewConcurrencyGate(client, validator.New())
	ctx := context.Background()

	assert.NoError(t, gate.Release(ctx, "k", "never-acquired"))
}

func TestGate_ReusingLiveRequestIDIsANoop(t *testing.T) {
	client, _ := newTestClient(t)
	gate := ratelimitredis.NewConcurrencyGate(client, validator.New())
	ctx := context.Background()

	ok1, _, err := gate.TryAcquire(ctx, "k", "req1", 2, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok1)

	// The gate does not refcount: re-acquiring the same id while the
	// first lease is still live is a no-op that reports the current
	// count rather than granting a second logical slot.
	ok2, occ, err := gate.TryAcquire(ctx, "k", "req1", 2, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok2)
	assert.EqualValues(t, 1, occ)
}

func TestGate_CleanupReportsEvictedCount(t *testing.T) {
	client, mr := newTestClient(t)
	gate := ratelimitredis.NewConcurrencyGate(client, validator.New())
	ctx := context.Background()

	_, _, err := gate.TryAcquire(ctx, "k", "req1", 5, 1*time.Second)
	require.NoError(t, err)
	_, _, err = gate.TryAcquire(ctx, "k", "req2", 5, 1*time.Second)
	require.NoError(t, err)

	mr.SetTime(time.Now().Add(2 * time.Second))

	removed, err := gate.Cleanup(ctx, "k", 1*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	removedAgain, err := gate.Cleanup(ctx, "k", 1*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 0, removedAgain)
}
