//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/testutil"
)

func TestKafkaRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})

	brokers := testutil.SetupKafka(ctx, t)
	const topic = "order.created"

	producer := messaging.NewProducer(brokers, topic)
	t.Cleanup(func() { _ = producer.Close() })

	pubCtx, span := otel.Tracer("test").Start(ctx, "checkout")
	traceID := span.SpanContext().TraceID()
	require.NoError(t, producer.PublishOrderCreated(pubCtx, domain.OrderCreatedEvent{OrderID: 1, Total: "10.00"}))
	require.NoError(t, producer.Publish(pubCtx, "junk", "not an event"))
	require.NoError(t, producer.PublishOrderCreated(pubCtx, domain.OrderCreatedEvent{OrderID: 2, Total: "5.00"}))
	span.End()

	consumer := messaging.NewConsumer(brokers, topic, "it-group",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		messaging.WithStartOffset(kafka.FirstOffset),
	)
	t.Cleanup(func() { _ = consumer.Close() })

	consumeCtx, stop := context.WithCancel(ctx)
	var (
		mu       sync.Mutex
		received []int64
		traces   []trace.TraceID
	)
	err := consumer.Consume(consumeCtx, func(ctx context.Context, payload []byte) error {
		var e domain.OrderCreatedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return messaging.Permanent(err)
		}
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e.OrderID)
		traces = append(traces, trace.SpanContextFromContext(ctx).TraceID())
		if len(received) == 2 {
			stop()
		}
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	assert.ElementsMatch(t, []int64{1, 2}, received, "the junk message is skipped")
	for _, id := range traces {
		assert.Equal(t, traceID, id)
	}
}
