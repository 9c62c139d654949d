package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/distlimit/engine/pkg/ratelimit"
	"github.com/distlimit/engine/pkg/ratelimit/scripts"
	"github.com/distlimit/engine/pkg/validator"
)

// SlidingWindowLimiter admits requests against a rolling window of
// max_requests = floor(rate*window), smoothed over a sorted set of
// admitted timestamps. burst is accepted for interface symmetry with
// the other four algorithms but ignored: the algorithm has no separate
// burst allowance.
type SlidingWindowLimiter struct {
	exec   *Executor
	client redis.Cmdable
	v      *validator.Validator
}

// NewSlidingWindowLimiter returns a SlidingWindowLimiter over client.
func NewSlidingWindowLimiter(client redis.Cmdable, v *validator.Validator) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{exec: NewExecutor(client), client: client, v: v}
}

func slidingKey(key string) string { return "sliding:" + key }

func (l *SlidingWindowLimiter) Attempt(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (ratelimit.Decision, error) {
	if err := ratelimit.ValidateAttemptArgs(l.v, burst, rate, window); err != nil {
		return ratelimit.Decision{}, err
	}
	if err := ratelimit.ValidateWindowArg(l.v, window); err != nil {
		return ratelimit.Decision{}, err
	}
	raw, err := l.exec.Run(ctx, scripts.SlidingAttempt.ID, []string{slidingKey(key)}, int64(window/time.Second), rate)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	t, err := parseTuple(scripts.SlidingAttempt.ID, raw)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	return attemptDecision(t), nil
}

func (l *SlidingWindowLimiter) status(ctx context.Context, key string, rate float64, window time.Duration) (tuple, error) {
	raw, err := l.exec.Run(ctx, scripts.SlidingStatus.ID, []string{slidingKey(key)}, int64(window/time.Second), rate)
	if err != nil {
		return tuple{}, err
	}
	return parseTuple(scripts.SlidingStatus.ID, raw)
}

// Attempts reports the current count of admitted requests still inside
// the window (scores above now-window, the same bound Attempt evicts
// at), independent of rate.
func (l *SlidingWindowLimiter) Attempts(ctx context.Context, key string, window time.Duration) (int64, error) {
	if err := ratelimit.ValidateWindowArg(l.v, window); err != nil {
		return 0, err
	}
	raw, err := l.exec.Run(ctx, scripts.SlidingCount.ID, []string{slidingKey(key)}, int64(window/time.Second))
	if err != nil {
		return 0, err
	}
	return parseSingle(scripts.SlidingCount.ID, raw)
}

func (l *SlidingWindowLimiter) Remaining(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (int64, error) {
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

func (l *SlidingWindowLimiter) AvailableIn(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (time.Duration, error) {
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

func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) (int64, error) {
	n, err := l.client.Del(ctx, slidingKey(key)).Result()
	if err != nil {
		return 0, ratelimit.ErrTransport(err)
	}
	return n, nil
}
