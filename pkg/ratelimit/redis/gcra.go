package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/distlimit/engine/pkg/ratelimit"
	"github.com/distlimit/engine/pkg/ratelimit/scripts"
	"github.com/distlimit/engine/pkg/validator"
)

// GCRALimiter admits at most floor(rate*window) requests per window,
// tracked as a single theoretical-arrival-time value rather than a
// window-aligned counter, giving the same cap as sliding window with
// O(1) state per key instead of a set.
type GCRALimiter struct {
	exec   *Executor
	client goredis.Cmdable
	v      *validator.Validator
}

// NewGCRALimiter returns a GCRALimiter over client.
func NewGCRALimiter(client goredis.Cmdable, v *validator.Validator) *GCRALimiter {
	return &GCRALimiter{exec: NewExecutor(client), client: client, v: v}
}

func gcraKey(key string) string { return "gcra:" + key }

func (l *GCRALimiter) Attempt(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (ratelimit.Decision, error) {
	if err := ratelimit.ValidateAttemptArgs(l.v, burst, rate, window); err != nil {
		return ratelimit.Decision{}, err
	}
	if err := ratelimit.ValidateWindowArg(l.v, window); err != nil {
		return ratelimit.Decision{}, err
	}
	raw, err := l.exec.Run(ctx, scripts.GCRAAttempt.ID, []string{gcraKey(key)}, int64(window/time.Second), rate)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	t, err := parseTuple(scripts.GCRAAttempt.ID, raw)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	return attemptDecision(t), nil
}

func (l *GCRALimiter) status(ctx context.Context, key string, rate float64, window time.Duration) (tuple, error) {
	raw, err := l.exec.Run(ctx, scripts.GCRAStatus.ID, []string{gcraKey(key)}, int64(window/time.Second), rate)
	if err != nil {
		return tuple{}, err
	}
	return parseTuple(scripts.GCRAStatus.ID, raw)
}

// Attempts reports a best-effort occupancy reading: GCRA carries no
// count state, only a TAT, so the reported value is 0 when no TAT is
// stored yet and 1 once any admission has pushed TAT into the future.
// Callers that need an exact used-of-limit figure should use Remaining
// with the same rate the key is being admitted against.
func (l *GCRALimiter) Attempts(ctx context.Context, key string, window time.Duration) (int64, error) {
	if err := ratelimit.ValidateWindowArg(l.v, window); err != nil {
		return 0, err
	}
	exists, err := l.client.Exists(ctx, gcraKey(key)).Result()
	if err != nil {
		return 0, ratelimit.ErrTransport(err)
	}
	return exists, nil
}

func (l *GCRALimiter) Remaining(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (int64, error) {
	if err := ratelimit.ValidateAttemptArgs(l.v, burst, rate, window); err != nil {
		return 0, err
	}
	if err := ratelimit.ValidateWindowArg(l.v, window); err != nil {
		return 0, err
	}
	t, err := l.status(ctx, key, rate, window)
	if err != nil {
		return 0, err
	}
	return t.b, nil
}

func (l *GCRALimiter) AvailableIn(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (time.Duration, error) {
	if err := ratelimit.ValidateAttemptArgs(l.v, burst, rate, window); err != nil {
		return 0, err
	}
	if err := ratelimit.ValidateWindowArg(l.v, window); err != nil {
		return 0, err
	}
	t, err := l.status(ctx, key, rate, window)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.c) * time.Second, nil
}

func (l *GCRALimiter) Reset(ctx context.Context, key string) (int64, error) {
	n, err := l.client.Del(ctx, gcraKey(key)).Result()
	if err != nil {
		return 0, ratelimit.ErrTransport(err)
	}
	return n, nil
}
