package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/joao-fontenele/storefront"

// CheckoutMetrics records the outcome and latency of checkout attempts.
type CheckoutMetrics struct {
	attempts metric.Int64Counter
	duration metric.Float64Histogram
	placed   metric.Int64Counter
}

func NewCheckoutMetrics() (*CheckoutMetrics, error) {
	meter := otel.Meter(meterName)

	attempts, err := meter.Int64Counter("storefront.checkout.attempts",
		metric.WithDescription("Checkout attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("storefront.checkout.duration",
		metric.WithDescription("Time spent placing an order"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	placed, err := meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders committed, counted by the order_created subscriber"),
	)
	if err != nil {
		return nil, err
	}

	return &CheckoutMetrics{attempts: attempts, duration: duration, placed: placed}, nil
}

// RecordAttempt counts one checkout with its outcome ("ok" or an error kind).
func (m *CheckoutMetrics) RecordAttempt(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.attempts.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *CheckoutMetrics) RecordPlaced(ctx context.Context, items int) {
	if m == nil {
		return
	}
	m.placed.Add(ctx, 1, metric.WithAttributes(attribute.Int("items", items)))
}
