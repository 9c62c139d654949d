package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/distlimit/engine/pkg/ratelimit"
	"github.com/distlimit/engine/pkg/ratelimit/scripts"
	"github.com/distlimit/engine/pkg/validator"
)

// TokenBucketLimiter admits up to burst requests immediately, refilling
// at rate tokens/second with an anti-thrash floor on refill frequency.
// window is accepted for interface symmetry and ignored by Attempt,
// Remaining and AvailableIn; Attempts still rejects a non-positive window.
type TokenBucketLimiter struct {
	exec   *Executor
	client goredis.Cmdable
	v      *validator.Validator
}

// NewTokenBucketLimiter returns a TokenBucketLimiter over client.
func NewTokenBucketLimiter(client goredis.Cmdable, v *validator.Validator) *TokenBucketLimiter {
	return &TokenBucketLimiter{exec: NewExecutor(client), client: client, v: v}
}

func tokenKey(key string) string { return "token:" + key }

func (l *TokenBucketLimiter) Attempt(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (ratelimit.Decision, error) {
	if err := ratelimit.ValidateAttemptArgs(l.v, burst, rate, window); err != nil {
		return ratelimit.Decision{}, err
	}
	if err := ratelimit.ValidateBurst(l.v, burst); err != nil {
		return ratelimit.Decision{}, err
	}
	raw, err := l.exec.Run(ctx, scripts.TokenAttempt.ID, []string{tokenKey(key)}, burst, rate)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	t, err := parseTuple(scripts.TokenAttempt.ID, raw)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	return attemptDecision(t), nil
}

// Attempts reports the stored lifetime attempt counter, the field the
// Token Bucket State model carries for exactly this purpose.
func (l *TokenBucketLimiter) Attempts(ctx context.Context, key string, window time.Duration) (int64, error) {
	if err := ratelimit.ValidateWindowArg(l.v, window); err != nil {
		return 0, err
	}
	n, err := l.client.HGet(ctx, tokenKey(key), "attempts").Int64()
	if err != nil {
		if err == goredis.Nil {
			return 0, nil
		}
		return 0, ratelimit.ErrTransport(err)
	}
	return n, nil
}

func (l *TokenBucketLimiter) status(ctx context.Context, key string, burst int64, rate float64) (tuple, error) {
	raw, err := l.exec.Run(ctx, scripts.TokenStatus.ID, []string{tokenKey(key)}, burst, rate)
	if err != nil {
		return tuple{}, err
	}
	return parseTuple(scripts.TokenStatus.ID, raw)
}

func (l *TokenBucketLimiter) Remaining(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (int64, error) {
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

func (l *TokenBucketLimiter) AvailableIn(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (time.Duration, error) {
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

func (l *TokenBucketLimiter) Reset(ctx context.Context, key string) (int64, error) {
	n, err := l.client.Del(ctx, tokenKey(key)).Result()
	if err != nil {
		return 0, ratelimit.ErrTransport(err)
	}
	return n, nil
}
