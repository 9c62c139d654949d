package ratelimit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/distlimit/engine/pkg/logger"
)

// InstrumentedLimiter wraps a Limiter to add tracing and structured
// logging around every call, without changing admission semantics.
type InstrumentedLimiter struct {
	next   Limiter
	tracer trace.Tracer
}

// NewInstrumentedLimiter wraps next.
func NewInstrumentedLimiter(next Limiter) *InstrumentedLimiter {
	return &InstrumentedLimiter{next: next, tracer: otel.Tracer("pkg/ratelimit")}
}

func (l *InstrumentedLimiter) Attempt(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (Decision, error) {
	ctx, span := l.tracer.Start(ctx, "ratelimit.Attempt", trace.WithAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int64("ratelimit.burst", burst),
		attribute.Float64("ratelimit.rate", rate),
	))
	defer span.End()

	decision, err := l.next.Attempt(ctx, key, burst, rate, window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.L().ErrorContext(ctx, "rate-limit attempt failed", "key", key, "error", err)
		return Decision{}, err
	}

	span.SetAttributes(attribute.Bool("ratelimit.allowed", decision.Allowed()))
	if !decision.Allowed() {
		logger.L().DebugContext(ctx, "rate-limit denied", "key", key, "retry_after_seconds", decision.RetryAfterSeconds)
	}
	return decision, nil
}

func (l *InstrumentedLimiter) Attempts(ctx context.Context, key string, window time.Duration) (int64, error) {
	return l.next.Attempts(ctx, key, window)
}

func (l *InstrumentedLimiter) Remaining(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (int64, error) {
	return l.next.Remaining(ctx, key, burst, rate, window)
}

func (l *InstrumentedLimiter) AvailableIn(ctx context.Context, key string, burst int64, rate float64, window time.Duration) (time.Duration, error) {
	return l.next.AvailableIn(ctx, key, burst, rate, window)
}

func (l *InstrumentedLimiter) Reset(ctx context.Context, key string) (int64, error) {
	ctx, span := l.tracer.Start(ctx, "ratelimit.Reset", trace.WithAttributes(
		attribute.String("ratelimit.key", key),
	))
	defer span.End()

	logger.L().DebugContext(ctx, "rate-limit reset", "key", key)
	n, err := l.next.Reset(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int64("ratelimit.reset_count", n))
	return n, nil
}

// InstrumentedGate wraps a Gate to add tracing and structured logging.
type InstrumentedGate struct {
	next   Gate
	tracer trace.Tracer
}

// NewInstrumentedGate wraps next.
func NewInstrumentedGate(next Gate) *InstrumentedGate {
	return &InstrumentedGate{next: next, tracer: otel.Tracer("pkg/ratelimit")}
}

func (g *InstrumentedGate) TryAcquire(ctx context.Context, key, requestID string, max int64, timeout time.Duration) (bool, int64, error) {
	ctx, span := g.tracer.Start(ctx, "ratelimit.Gate.TryAcquire", trace.WithAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int64("ratelimit.gate_max", max),
	))
	defer span.End()

	acquired, occupancy, err := g.next.TryAcquire(ctx, key, requestID, max, timeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.L().ErrorContext(ctx, "gate acquire failed", "key", key, "error", err)
		return false, 0, err
	}

	span.SetAttributes(attribute.Bool("ratelimit.gate_acquired", acquired), attribute.Int64("ratelimit.gate_occupancy", occupancy))
	if !acquired {
		logger.L().DebugContext(ctx, "gate exhausted", "key", key, "occupancy", occupancy, "max", max)
	}
	return acquired, occupancy, nil
}

func (g *InstrumentedGate) Release(ctx context.Context, key, requestID string) error {
	ctx, span := g.tracer.Start(ctx, "ratelimit.Gate.Release", trace.WithAttributes(
		attribute.String("ratelimit.key", key),
	))
	defer span.End()

	if err := g.next.Release(ctx, key, requestID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (g *InstrumentedGate) Current(ctx context.Context, key string, timeout time.Duration) (int64, error) {
	return g.next.Current(ctx, key, timeout)
}

func (g *InstrumentedGate) Cleanup(ctx context.Context, key string, timeout time.Duration) (int64, error) {
	return g.next.Cleanup(ctx, key, timeout)
}
