package ratelimit

import "time"

// RejectionCause classifies why a concurrency-aware attempt was denied.
type RejectionCause string

const (
	// RejectionNone means the attempt was admitted.
	RejectionNone RejectionCause = "none"

	// RejectionGateExhausted means the concurrency gate had no free slot
	// at the time of the call, after stale leases were evicted; the base
	// algorithm was never consulted.
	RejectionGateExhausted RejectionCause = "gate_exhausted"

	// RejectionRateExceeded means a gate slot was acquired but the base
	// algorithm denied the request; the slot is released before the
	// decision is returned.
	RejectionRateExceeded RejectionCause = "rate_exceeded"
)

// Decision is the result of a single admission check against one of the
// five algorithms. RetryAfterSeconds and RetriesLeft come straight off the
// script's return tuple; Allowed and AvailableAt are derived from them
// rather than carried as independent state, so a caller can never observe
// an inconsistent combination.
type Decision struct {
	// RetryAfterSeconds is how long the caller should wait before the
	// next attempt might succeed. Zero when the attempt was admitted.
	RetryAfterSeconds int64

	// RetriesLeft is the number of further admissions the algorithm
	// believes are available in the current window, post-admission.
	RetriesLeft int64

	// Limit is the effective cap the algorithm is enforcing (max
	// requests, bucket capacity, or token count, depending on algorithm).
	Limit int64

	observedAt time.Time
}

// NewDecision builds a Decision, recording the wall-clock instant it was
// observed so AvailableAt can project forward from it.
func NewDecision(retryAfterSeconds, retriesLeft, limit int64) Decision {
	return Decision{
		RetryAfterSeconds: retryAfterSeconds,
		RetriesLeft:       retriesLeft,
		Limit:             limit,
		observedAt:        time.Now(),
	}
}

// Allowed reports whether the attempt was admitted.
func (d Decision) Allowed() bool {
	return d.RetryAfterSeconds == 0
}

// AvailableAt is the wall-clock instant at which the next admission is
// expected to become possible.
func (d Decision) AvailableAt() time.Time {
	return d.observedAt.Add(time.Duration(d.RetryAfterSeconds) * time.Second)
}

// ConcurrencyDecision extends Decision with the concurrency gate's
// contribution to a composed attempt: whether a slot was acquired, why the
// attempt was ultimately rejected (if it was), and the gate's own
// occupancy at the time of the call.
type ConcurrencyDecision struct {
	Decision

	// GateAcquired reports whether a gate slot is held as of this
	// decision. It is false for RejectionRateExceeded: the slot was
	// taken to consult the base algorithm but released before return
	// once that algorithm denied the request.
	GateAcquired bool

	// RejectionCause explains a denial. It is RejectionNone when Allowed
	// is true.
	RejectionCause RejectionCause

	// CurrentInFlight is the gate's occupancy count observed during the
	// attempt.
	CurrentInFlight int64

	// MaxInFlight is the gate's configured slot ceiling.
	MaxInFlight int64
}

// Base projects a ConcurrencyDecision back down to the plain Decision a
// caller that only cares about admission, not gate bookkeeping, expects.
func (c ConcurrencyDecision) Base() Decision {
	return c.Decision
}
