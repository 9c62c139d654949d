package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ratelimitredis "github.com/distlimit/engine/pkg/ratelimit/redis"
)

func TestExecutor_RunUnregisteredScriptIDFails(t *testing.T) {
	client, _ := newTestClient(t)
	exec := ratelimitredis.NewExecutor(client)
	ctx := context.Background()

	_, err := exec.Run(ctx, "not:a:real:script", []string{"k"})
	assert.Error(t, err)
}

func TestFactory_WarmCacheLoadsEveryScript(t *testing.T) {
	client, _ := newTestClient(t)
	factory := ratelimitredis.NewFactory(client)
	ctx := context.Background()

	require.NoError(t, factory.WarmCache(ctx))

	limiter := factory.SlidingWindow()
	_, err := limiter.Attempt(ctx, "u", 0, 5, 60*time.Second)
	require.NoError(t, err)
}
