// Package ratelimit defines the contract every admission algorithm, the
// concurrency gate, and the composer implement, plus the argument
// validation and decision types shared across them. Concrete backends
// live in subpackages (pkg/ratelimit/redis); this package has no store
// dependency of its own.
package ratelimit

import (
	"context"
	"time"

	"github.com/distlimit/engine/pkg/validator"
)

// Algorithm names one of the five admission strategies a Factory can
// build a Limiter for.
type Algorithm string

const (
	AlgorithmSlidingWindow Algorithm = "sliding_window"
	AlgorithmFixedWindow   Algorithm = "fixed_window"
	AlgorithmLeakyBucket   Algorithm = "leaky_bucket"
	AlgorithmTokenBucket   Algorithm = "token_bucket"
	AlgorithmGCRA          Algorithm = "gcra"
)

// Limiter is the contract every admission algorithm implements: attempt an
// admission, inspect current usage without mutating it, and reset a key's
// state. burst, rate, and window carry different meanings per algorithm
// (see each redis.* implementation). rate must always be strictly
// positive; burst and window are checked only by the algorithms that use
// them, except that Attempts rejects a non-positive window for every
// algorithm.
type Limiter interface {
	// Attempt admits or denies one request for key, returning a Decision.
	Attempt(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (Decision, error)

	// Attempts reports the algorithm's current usage count for key
	// without mutating state. Best-effort: concurrent attempts may race
	// with the read. window is the same horizon passed to Attempt;
	// algorithms that do not need it for a usage read ignore it.
	Attempts(ctx context.Context, key string, window time.Duration) (int64, error)

	// Remaining reports how much admission headroom key has left in the
	// current window without mutating state.
	Remaining(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (int64, error)

	// AvailableIn reports how long until key's next admission is expected
	// to succeed. Zero if an admission would succeed right now.
	AvailableIn(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (time.Duration, error)

	// Reset clears key's state and reports how many store entries were
	// removed. Best-effort: for algorithms keyed by a time slot (fixed
	// window), only the current slot is cleared.
	Reset(ctx context.Context, key string) (int64, error)
}

// Gate is the contract for a leased-slot concurrency bound: a fixed number
// of slots, each held by a request id until released or until its lease
// expires.
type Gate interface {
	// TryAcquire attempts to hold one of max slots for key under
	// requestID, first evicting leases older than timeout as stale. It
	// does not wait for a slot to free up. Returns whether a slot was
	// acquired and the occupancy observed at the time of the call.
	TryAcquire(ctx context.Context, key, requestID string, max int64, timeout time.Duration) (acquired bool, occupancy int64, err error)

	// Release frees the slot held by requestID for key. Idempotent: it
	// is not an error to release a slot that was never held or already
	// expired.
	Release(ctx context.Context, key, requestID string) error

	// Current reports the gate's occupancy for key, opportunistically
	// evicting expired leases first.
	Current(ctx context.Context, key string, timeout time.Duration) (int64, error)

	// Cleanup opportunistically evicts expired leases for key and
	// reports how many were removed.
	Cleanup(ctx context.Context, key string, timeout time.Duration) (int64, error)
}

// ConcurrencyLimiter composes a Gate with a base Limiter: a slot must be
// held before the base algorithm is consulted, and a slot acquired for a
// request the base algorithm then denies is released before the decision
// is returned.
type ConcurrencyLimiter interface {
	// AttemptWithConcurrency holds a gate slot, consults the base
	// algorithm, and releases the slot if the base algorithm denies the
	// request.
	AttemptWithConcurrency(ctx context.Context, key, requestID string, maxInFlight, burst int64, rate float64, window, gateTimeout time.Duration) (ConcurrencyDecision, error)

	// ReleaseConcurrency releases a slot held by a prior admitted
	// AttemptWithConcurrency call. Idempotent.
	ReleaseConcurrency(ctx context.Context, key, requestID string) error

	// CurrentInFlight reports the gate's current occupancy for key.
	CurrentInFlight(ctx context.Context, key string, gateTimeout time.Duration) (int64, error)
}

// ValidateAttemptArgs rejects a non-positive rate before any store round
// trip; burst and window are validated by ValidateBurst/ValidateWindowArg
// since not every algorithm's Attempt uses both (leaky and token bucket
// ignore window; sliding window ignores burst).
func ValidateAttemptArgs(v *validator.Validator, burst int64, rate float64, window time.Duration) error {
	if err := v.ValidateVar(rate, "gt=0"); err != nil {
		return ErrInvalidArgument("rate must be greater than zero")
	}
	return nil
}

// ValidateBurst rejects a non-positive burst.
func ValidateBurst(v *validator.Validator, burst int64) error {
	if err := v.ValidateVar(burst, "gt=0"); err != nil {
		return ErrInvalidArgument("burst must be greater than zero")
	}
	return nil
}

// ValidateWindowArg rejects a non-positive window, used by Attempts which
// takes no burst/rate.
func ValidateWindowArg(v *validator.Validator, window time.Duration) error {
	if err := v.ValidateVar(int64(window), "gt=0"); err != nil {
		return ErrInvalidArgument("window must be greater than zero")
	}
	return nil
}

// ValidateGateArgs rejects a non-positive slot ceiling or lease timeout
// before any store round trip.
func ValidateGateArgs(v *validator.Validator, max int64, timeout time.Duration) error {
	if err := v.ValidateVar(max, "gt=0"); err != nil {
		return ErrInvalidArgument("max concurrency must be greater than zero")
	}
	if err := v.ValidateVar(int64(timeout), "gt=0"); err != nil {
		return ErrInvalidArgument("gate timeout must be greater than zero")
	}
	return nil
}
