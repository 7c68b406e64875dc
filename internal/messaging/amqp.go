package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var queueTracer = otel.Tracer("messaging/queue")

// ErrQueueClosed is returned by MailConsumer.Consume when the broker closes
// the delivery channel.
var ErrQueueClosed = errors.New("delivery channel closed")

func deadLetterExchange(queue string) string { return queue + ".dlx" }

// DeadLetterQueue names the queue that collects rejected jobs of queue.
func DeadLetterQueue(queue string) string { return queue + ".dlq" }

// SetupMailQueue declares queue together with its dead-letter exchange and
// queue. Declarations are idempotent, so publishers and consumers both call it.
func SetupMailQueue(ch *amqp.Channel, queue string) error {
	dlx, dlq := deadLetterExchange(queue), DeadLetterQueue(queue)

	if err := ch.ExchangeDeclare(dlx, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}
	if err := ch.QueueBind(dlq, queue, dlx, false, nil); err != nil {
		return fmt.Errorf("bind dead-letter queue: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": queue,
	}); err != nil {
		return fmt.Errorf("declare %s queue: %w", queue, err)
	}
	return nil
}

// MailConn is a broker connection with one channel on which the mail queue
// topology has been declared.
type MailConn struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// DialMail connects to url and declares queue with its dead-letter pair.
func DialMail(url, queue string) (*MailConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := SetupMailQueue(ch, queue); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &MailConn{Conn: conn, Channel: ch}, nil
}

func (m *MailConn) Close() error {
	_ = m.Channel.Close()
	return m.Conn.Close()
}

type MailPublisher struct {
	ch    *amqp.Channel
	queue string
}

func NewMailPublisher(ch *amqp.Channel, queue string) *MailPublisher {
	return &MailPublisher{ch: ch, queue: queue}
}

func (p *MailPublisher) Publish(ctx context.Context, job domain.MailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, span := queueTracer.Start(ctx, "send "+p.queue,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemRabbitmq,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.queue),
			semconv.MessagingRabbitmqDestinationRoutingKey(p.queue),
		),
	)
	defer span.End()

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, amqpCarrier(headers))

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      headers,
		Body:         body,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("publish mail job: %w", err)
	}
	return nil
}

type MailConsumer struct {
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
}

func NewMailConsumer(ch *amqp.Channel, queue string, logger *slog.Logger) *MailConsumer {
	return &MailConsumer{ch: ch, queue: queue, logger: logger}
}

// Consume delivers jobs to handler one at a time until ctx ends. Jobs that
// fail to decode or that handler rejects are dead-lettered; jobs cut short
// by cancellation go back on the queue.
func (c *MailConsumer) Consume(ctx context.Context, handler func(ctx context.Context, job domain.MailJob) error) error {
	if err := c.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrQueueClosed
			}
			c.process(ctx, d, handler)
		}
	}
}

func (c *MailConsumer) process(ctx context.Context, d amqp.Delivery, handler func(ctx context.Context, job domain.MailJob) error) {
	if d.Headers != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, amqpCarrier(d.Headers))
	}

	ctx, span := queueTracer.Start(ctx, "process "+c.queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemRabbitmq,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.queue),
		),
	)
	defer span.End()

	var job domain.MailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed job")
		c.logger.Error("dead-lettering malformed mail job", "queue", c.queue, "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("requeueing interrupted mail job", "queue", c.queue, "order_id", job.OrderID, "error", err)
			_ = d.Nack(false, true)
			return
		}
		c.logger.Error("dead-lettering failed mail job", "queue", c.queue, "order_id", job.OrderID, "error", err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}
