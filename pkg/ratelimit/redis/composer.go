package redis

import (
	"context"
	"time"

	"github.com/distlimit/engine/pkg/ratelimit"
)

// ComposedLimiter sequences a ConcurrencyGate ahead of a base Limiter:
// a slot must be held before the base algorithm is consulted at all,
// and a slot taken for a request the base algorithm then denies is
// released before the decision is returned. This ordering means a
// caller stuck behind saturated concurrency never burns rate budget,
// and a caller denied by rate never holds a slot it isn't using.
type ComposedLimiter struct {
	gate *ConcurrencyGate
	base ratelimit.Limiter
}

// NewComposedLimiter returns a ComposedLimiter pairing gate with base.
// base may be nil, in which case AttemptWithConcurrency only enforces
// the concurrency bound and never denies on rate.
func NewComposedLimiter(gate *ConcurrencyGate, base ratelimit.Limiter) *ComposedLimiter {
	return &ComposedLimiter{gate: gate, base: base}
}

func (c *ComposedLimiter) AttemptWithConcurrency(ctx context.Context, key, requestID string, maxInFlight, burst int64, rate float64, window, gateTimeout time.Duration) (ratelimit.ConcurrencyDecision, error) {
	acquired, occupancy, err := c.gate.TryAcquire(ctx, key, requestID, maxInFlight, gateTimeout)
	if err != nil {
		return ratelimit.ConcurrencyDecision{}, err
	}
	if !acquired {
		return ratelimit.ConcurrencyDecision{
			Decision:        ratelimit.NewDecision(1, 0, maxInFlight),
			GateAcquired:    false,
			RejectionCause:  ratelimit.RejectionGateExhausted,
			CurrentInFlight: occupancy,
			MaxInFlight:     maxInFlight,
		}, nil
	}

	if c.base == nil {
		return ratelimit.ConcurrencyDecision{
			Decision:        ratelimit.NewDecision(0, 0, maxInFlight),
			GateAcquired:    true,
			RejectionCause:  ratelimit.RejectionNone,
			CurrentInFlight: occupancy,
			MaxInFlight:     maxInFlight,
		}, nil
	}

	decision, err := c.base.Attempt(ctx, key, burst, rate, window)
	if err != nil {
		_ = c.gate.Release(ctx, key, requestID)
		return ratelimit.ConcurrencyDecision{}, err
	}

	if decision.Allowed() {
		return ratelimit.ConcurrencyDecision{
			Decision:        decision,
			GateAcquired:    true,
			RejectionCause:  ratelimit.RejectionNone,
			CurrentInFlight: occupancy,
			MaxInFlight:     maxInFlight,
		}, nil
	}

	if err := c.gate.Release(ctx, key, requestID); err != nil {
		return ratelimit.ConcurrencyDecision{}, err
	}
	occupancyAfter := occupancy - 1
	return ratelimit.ConcurrencyDecision{
		Decision:        decision,
		GateAcquired:    false,
		RejectionCause:  ratelimit.RejectionRateExceeded,
		CurrentInFlight: occupancyAfter,
		MaxInFlight:     maxInFlight,
	}, nil
}

func (c *ComposedLimiter) ReleaseConcurrency(ctx context.Context, key, requestID string) error {
	return c.gate.Release(ctx, key, requestID)
}

func (c *ComposedLimiter) CurrentInFlight(ctx context.Context, key string, gateTimeout time.Duration) (int64, error) {
	return c.gate.Current(ctx, key, gateTimeout)
}
