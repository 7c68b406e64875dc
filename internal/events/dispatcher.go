// Package events fans a value out to independent subscribers without
// blocking the publisher.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// Handler consumes one event. A returned error is logged and otherwise ignored.
type Handler[E any] func(ctx context.Context, event E) error

type subscriber[E any] struct {
	name    string
	handler Handler[E]
}

// Dispatcher delivers each published event to every subscriber in its own
// goroutine. A slow, failing or panicking subscriber affects nobody else.
type Dispatcher[E any] struct {
	name    string
	timeout time.Duration
	logger  *slog.Logger

	mu          sync.RWMutex
	subscribers []subscriber[E]
	draining    bool
	inflight    sync.WaitGroup
}

func NewDispatcher[E any](name string, timeout time.Duration, logger *slog.Logger) *Dispatcher[E] {
	return &Dispatcher[E]{
		name:    name,
		timeout: timeout,
		logger:  logger,
	}
}

func (d *Dispatcher[E]) Subscribe(name string, h Handler[E]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, subscriber[E]{name: name, handler: h})
}

// Publish hands event to all current subscribers and returns immediately.
// Deliveries run under a context detached from ctx's cancellation so that a
// finished HTTP request does not abort them; trace context is kept.
// Events published once Wait has been called are dropped.
func (d *Dispatcher[E]) Publish(ctx context.Context, event E) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.draining {
		d.logger.Warn("dropping event published during shutdown", "event", d.name)
		return
	}

	base := context.WithoutCancel(ctx)
	for _, sub := range d.subscribers {
		d.inflight.Add(1)
		go d.deliver(base, sub, event)
	}
}

func (d *Dispatcher[E]) deliver(ctx context.Context, sub subscriber[E], event E) {
	defer d.inflight.Done()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "deliver "+d.name,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("subscriber panicked: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			d.logger.Error("event subscriber panicked", "event", d.name, "subscriber", sub.name, "panic", r)
		}
	}()

	if err := sub.handler(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error("event subscriber failed", "event", d.name, "subscriber", sub.name, "error", err)
		return
	}

	d.logger.Debug("event delivered", "event", d.name, "subscriber", sub.name)
}

// Wait stops the dispatcher from accepting events and blocks until
// in-flight deliveries finish or ctx is done.
func (d *Dispatcher[E]) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.draining = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
