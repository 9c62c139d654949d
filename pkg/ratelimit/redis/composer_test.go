package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distlimit/engine/pkg/ratelimit"
	ratelimitredis "github.com/distlimit/engine/pkg/ratelimit/redis"
	"github.com/distlimit/engine/pkg/validator"
)

// TestComposer_S4 exercises scenario S4: gate has ample room (M=50) but
// the base algorithm's burst=2 is exhausted on the third call, which
// must report rate_exceeded and leave current_in_flight back at its
// pre-call value because the slot was released.
func TestComposer_S4(t *testing.T) {
	client, _ := newTestClient(t)
	v := validator.New()
	gate := ratelimitredis.NewConcurrencyGate(client, v)
	base := ratelimitredis.NewFixedWindowLimiter(client, v)
	composer := ratelimitredis.NewComposedLimiter(gate, base)
	ctx := context.Background()

	d1, err := composer.AttemptWithConcurrency(ctx, "u", "req1", 50, 2, 1, 60*time.Second, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, d1.Allowed())
	assert.True(t, d1.GateAcquired)
	assert.Equal(t, ratelimit.RejectionNone, d1.RejectionCause)

	d2, err := composer.AttemptWithConcurrency(ctx, "u", "req2", 50, 2, 1, 60*time.Second, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, d2.Allowed())

	before, err := composer.CurrentInFlight(ctx, "u", 10*time.Second)
	require.NoError(t, err)

	d3, err := composer.AttemptWithConcurrency(ctx, "u", "req3", 50, 2, 1, 60*time.Second, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, d3.Allowed())
	assert.False(t, d3.GateAcquired)
	assert.Equal(t, ratelimit.RejectionRateExceeded, d3.RejectionCause)

	after, err := composer.CurrentInFlight(ctx, "u", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a rate-denied attempt must release its gate slot")
}

// TestComposer_GateExhaustedNeverConsultsBase exercises scenario S3's
// composer counterpart: when the gate is full, the base algorithm's
// state must be untouched (measurable via Attempts before/after).
func TestComposer_GateExhaustedNeverConsultsBase(t *testing.T) {
	client, _ := newTestClient(t)
	v := validator.New()
	gate := ratelimitredis.NewConcurrencyGate(client, v)
	base := ratelimitredis.NewFixedWindowLimiter(client, v)
	composer := ratelimitredis.NewComposedLimiter(gate, base)
	ctx := context.Background()

	_, err := composer.AttemptWithConcurrency(ctx, "u", "req1", 1, 10, 1, 60*time.Second, 10*time.Second)
	require.NoError(t, err)

	before, err := base.Attempts(ctx, "u", 60*time.Second)
	require.NoError(t, err)

	d2, err := composer.AttemptWithConcurrency(ctx, "u", "req2", 1, 10, 1, 60*time.Second, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, d2.Allowed())
	assert.Equal(t, ratelimit.RejectionGateExhausted, d2.RejectionCause)

	after, err := base.Attempts(ctx, "u", 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a gate-exhausted attempt must never touch base algorithm state")
}

func TestComposer_PureGateModeWithNilBase(t *testing.T) {
	client, _ := newTestClient(t)
	v := validator.New()
	gate := ratelimitredis.NewConcurrencyGate(client, v)
	composer := ratelimitredis.NewComposedLimiter(gate, nil)
	ctx := context.Background()

	d, err := composer.AttemptWithConcurrency(ctx, "u", "req1", 5, 0, 0, 0, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, d.Allowed())
	assert.True(t, d.GateAcquired)
}
