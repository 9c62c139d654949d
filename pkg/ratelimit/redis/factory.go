package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/distlimit/engine/pkg/ratelimit"
	"github.com/distlimit/engine/pkg/ratelimit/scripts"
	"github.com/distlimit/engine/pkg/validator"
)

// Factory constructs limiter variants over a single store handle. It is
// stateless except for that handle: constructors are cheap, concurrency
// safe, and may be called as often as needed.
type Factory struct {
	client goredis.Cmdable
	v      *validator.Validator
}

// Option configures a Factory at construction time.
type Option func(*Factory)

// WithValidator overrides the default validator instance, mainly useful
// for tests that want a shared one.
func WithValidator(v *validator.Validator) Option {
	return func(f *Factory) { f.v = v }
}

// NewFactory returns a Factory over client.
func NewFactory(client goredis.Cmdable, opts ...Option) *Factory {
	f := &Factory{client: client, v: validator.New()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WarmCache eagerly loads every catalogue script into the store's
// script cache, failing fast on a source/hash mismatch instead of
// deferring discovery to the first Attempt call. This is purely an
// optimization: every Limiter already reloads on a cache miss, so
// skipping this is always safe.
func (f *Factory) WarmCache(ctx context.Context) error {
	exec := NewExecutor(f.client)
	ids := []string{
		scripts.SlidingAttempt.ID, scripts.SlidingStatus.ID, scripts.SlidingCount.ID,
		scripts.FixedAttempt.ID, scripts.FixedStatus.ID,
		scripts.LeakyAttempt.ID, scripts.LeakyStatus.ID,
		scripts.TokenAttempt.ID, scripts.TokenStatus.ID,
		scripts.GCRAAttempt.ID, scripts.GCRAStatus.ID,
		scripts.GateTryAcquire.ID, scripts.GateCurrent.ID, scripts.GateCleanup.ID,
	}
	return exec.Warm(ctx, ids)
}

// SlidingWindow returns a Limiter enforcing floor(rate*window) admitted
// requests over a rolling horizon.
func (f *Factory) SlidingWindow() ratelimit.Limiter {
	return NewSlidingWindowLimiter(f.client, f.v)
}

// FixedWindow returns a Limiter enforcing burst admissions per
// (key, window) slot.
func (f *Factory) FixedWindow() ratelimit.Limiter {
	return NewFixedWindowLimiter(f.client, f.v)
}

// LeakyBucket returns a Limiter enforcing burst outstanding units,
// draining at rate units/second.
func (f *Factory) LeakyBucket() ratelimit.Limiter {
	return NewLeakyBucketLimiter(f.client, f.v)
}

// TokenBucket returns a Limiter enforcing burst immediate admissions,
// refilling at rate tokens/second with an anti-thrash floor.
func (f *Factory) TokenBucket() ratelimit.Limiter {
	return NewTokenBucketLimiter(f.client, f.v)
}

// GCRA returns a Limiter enforcing floor(rate*window) admissions per
// window using theoretical-arrival-time bookkeeping.
func (f *Factory) GCRA() ratelimit.Limiter {
	return NewGCRALimiter(f.client, f.v)
}

// Gate returns the leased-slot concurrency semaphore.
func (f *Factory) Gate() *ConcurrencyGate {
	return NewConcurrencyGate(f.client, f.v)
}

// WithConcurrency returns a ConcurrencyLimiter pairing a fresh gate with
// base. Pass nil for a pure concurrency-gate mode with no rate check.
func (f *Factory) WithConcurrency(base ratelimit.Limiter) ratelimit.ConcurrencyLimiter {
	return NewComposedLimiter(f.Gate(), base)
}

// ForAlgorithm returns a Limiter for the named algorithm, or nil if the
// algorithm is unrecognized.
func (f *Factory) ForAlgorithm(alg ratelimit.Algorithm) ratelimit.Limiter {
	switch alg {
	case ratelimit.AlgorithmSlidingWindow:
		return f.SlidingWindow()
	case ratelimit.AlgorithmFixedWindow:
		return f.FixedWindow()
	case ratelimit.AlgorithmLeakyBucket:
		return f.LeakyBucket()
	case ratelimit.AlgorithmTokenBucket:
		return f.TokenBucket()
	case ratelimit.AlgorithmGCRA:
		return f.GCRA()
	default:
		return nil
	}
}

// InstrumentedForAlgorithm returns the named algorithm's Limiter wrapped
// with tracing and structured logging, or nil if the algorithm is
// unrecognized.
func (f *Factory) InstrumentedForAlgorithm(alg ratelimit.Algorithm) ratelimit.Limiter {
	base := f.ForAlgorithm(alg)
	if base == nil {
		return nil
	}
	return ratelimit.NewInstrumentedLimiter(base)
}

// InstrumentedGate returns the concurrency gate wrapped with tracing and
// structured logging.
func (f *Factory) InstrumentedGate() ratelimit.Gate {
	return ratelimit.NewInstrumentedGate(f.Gate())
}
