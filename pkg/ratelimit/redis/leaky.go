package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/distlimit/engine/pkg/ratelimit"
	"github.com/distlimit/engine/pkg/ratelimit/scripts"
	"github.com/distlimit/engine/pkg/validator"
)

// LeakyBucketLimiter admits up to burst outstanding units, draining one
// unit every ceil(1/rate) seconds. window is accepted for interface
// symmetry and ignored by Attempt, Remaining and AvailableIn, since the
// bucket has no fixed horizon; Attempts still rejects a non-positive
// window.
type LeakyBucketLimiter struct {
	exec   *Executor
	client goredis.Cmdable
	v      *validator.Validator
}

// NewLeakyBucketLimiter returns a LeakyBucketLimiter over client.
func NewLeakyBucketLimiter(client goredis.Cmdable, v *validator.Validator) *LeakyBucketLimiter {
	return &LeakyBucketLimiter{exec: NewExecutor(client), client: client, v: v}
}

func leakyKey(key string) string { return "leaky:" + key }

func (l *LeakyBucketLimiter) Attempt(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (ratelimit.Decision, error) {
	if err := ratelimit.ValidateAttemptArgs(l.v, burst, rate, window); err != nil {
		return ratelimit.Decision{}, err
	}
	if err := ratelimit.ValidateBurst(l.v, burst); err != nil {
		return ratelimit.Decision{}, err
	}
	raw, err := l.exec.Run(ctx, scripts.LeakyAttempt.ID, []string{leakyKey(key)}, burst, rate)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	t, err := parseTuple(scripts.LeakyAttempt.ID, raw)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	return attemptDecision(t), nil
}

func (l *LeakyBucketLimiter) status(ctx context.Context, key string, burst int64, rate float64) (tuple, error) {
	raw, err := l.exec.Run(ctx, scripts.LeakyStatus.ID, []string{leakyKey(key)}, burst, rate)
	if err != nil {
		return tuple{}, err
	}
	return parseTuple(scripts.LeakyStatus.ID, raw)
}

// Attempts reports the raw stored level without recomputing decay,
// since decay depends on rate and this operation's signature carries
// only window: a best-effort reading, exactly as specified, rather than
// an exact replay of the leak formula.
func (l *LeakyBucketLimiter) Attempts(ctx context.Context, key string, window time.Duration) (int64, error) {
	if err := ratelimit.ValidateWindowArg(l.v, window); err != nil {
		return 0, err
	}
	n, err := l.client.HGet(ctx, leakyKey(key), "level").Int64()
	if err != nil {
		if err == goredis.Nil {
			return 0, nil
		}
		return 0, ratelimit.ErrTransport(err)
	}
	return n, nil
}

func (l *LeakyBucketLimiter) Remaining(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (int64, error) {
	if err := ratelimit.ValidateAttemptArgs(l.v, burst, rate, window); err != nil {
		return 0, err
	}
	if err := ratelimit.ValidateBurst(l.v, burst); err != nil {
		return 0, err
	}
	t, err := l.status(ctx, key, burst, rate)
	if err != nil {
		return 0, err
	}
	return t.b, nil
}

func (l *LeakyBucketLimiter) AvailableIn(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (time.Duration, error) {
	if err := ratelimit.ValidateAttemptArgs(l.v, burst, rate, window); err != nil {
		return 0, err
	}
	if err := ratelimit.ValidateBurst(l.v, burst); err != nil {
		return 0, err
	}
	t, err := l.status(ctx, key, burst, rate)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.c) * time.Second, nil
}

func (l *LeakyBucketLimiter) Reset(ctx context.Context, key string) (int64, error) {
	n, err := l.client.Del(ctx, leakyKey(key)).Result()
	if err != nil {
		return 0, ratelimit.ErrTransport(err)
	}
	return n, nil
}
