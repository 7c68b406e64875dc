package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestCheckoutMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	m, err := NewCheckoutMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAttempt(ctx, "ok", 20*time.Millisecond)
	m.RecordAttempt(ctx, "not_found", time.Millisecond)
	m.RecordPlaced(ctx, 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, md := range rm.ScopeMetrics[0].Metrics {
		names[md.Name] = true
		if md.Name == "storefront.checkout.attempts" {
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			assert.Equal(t, int64(2), total)
		}
	}
	assert.True(t, names["storefront.checkout.duration"])
	assert.True(t, names["storefront.orders.placed"])
}

func TestCheckoutMetrics_NilIsNoop(t *testing.T) {
	var m *CheckoutMetrics
	m.RecordAttempt(context.Background(), "ok", time.Second)
	m.RecordPlaced(context.Background(), 1)
}
