// Package observability wires Sentry meters and traced HTTP clients.
package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/shopspring/decimal"
)

type meterContextKey struct{}

// WithMeter returns a context carrying the provided meter.
func WithMeter(ctx context.Context, meter sentry.Meter) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if meter == nil {
		meter = sentry.NewMeter(ctx)
	}
	return context.WithValue(ctx, meterContextKey{}, meter.WithCtx(ctx))
}

// MeterFromContext returns the request-scoped meter from context or a new one.
func MeterFromContext(ctx context.Context) sentry.Meter {
	if ctx == nil {
		ctx = context.Background()
	}
	if meter, ok := ctx.Value(meterContextKey{}).(sentry.Meter); ok && meter != nil {
		return meter.WithCtx(ctx)
	}
	return sentry.NewMeter(ctx).WithCtx(ctx)
}

// Count increments a counter on the context meter.
func Count(ctx context.Context, name string, attrs ...attribute.Builder) {
	MeterFromContext(ctx).Count(name, 1, sentry.WithAttributes(attrs...))
}

// ObserveSince records the milliseconds elapsed since start as a distribution.
func ObserveSince(ctx context.Context, name string, start time.Time, attrs ...attribute.Builder) {
	MeterFromContext(ctx).Distribution(
		name,
		float64(time.Since(start).Milliseconds()),
		sentry.WithUnit(sentry.UnitMillisecond),
		sentry.WithAttributes(attrs...),
	)
}

// ObserveAmount records a money value in major units, e.g. an order total in
// euros. Fractions below a cent are dropped.
func ObserveAmount(ctx context.Context, name string, amount decimal.Decimal, attrs ...attribute.Builder) {
	value, _ := amount.Round(2).Float64()
	MeterFromContext(ctx).Distribution(name, value, sentry.WithAttributes(attrs...))
}
