package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher() *Dispatcher[string] {
	return NewDispatcher[string]("test", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatcher_FanOut(t *testing.T) {
	d := newTestDispatcher()

	var mu sync.Mutex
	got := map[string]string{}
	for _, name := range []string{"a", "b", "c"} {
		d.Subscribe(name, func(_ context.Context, e string) error {
			mu.Lock()
			defer mu.Unlock()
			got[name] = e
			return nil
		})
	}

	d.Publish(context.Background(), "order-1")
	require.NoError(t, d.Wait(context.Background()))

	assert.Equal(t, map[string]string{"a": "order-1", "b": "order-1", "c": "order-1"}, got)
}

func TestDispatcher_FailingSubscriberIsIsolated(t *testing.T) {
	d := newTestDispatcher()

	var delivered atomic.Int32
	d.Subscribe("broken", func(context.Context, string) error {
		return errors.New("broker down")
	})
	d.Subscribe("panics", func(context.Context, string) error {
		panic("boom")
	})
	d.Subscribe("healthy", func(context.Context, string) error {
		delivered.Add(1)
		return nil
	})

	d.Publish(context.Background(), "e")
	require.NoError(t, d.Wait(context.Background()))

	assert.Equal(t, int32(1), delivered.Load())
}

func TestDispatcher_PublishDoesNotBlock(t *testing.T) {
	d := newTestDispatcher()

	release := make(chan struct{})
	d.Subscribe("slow", func(context.Context, string) error {
		<-release
		return nil
	})

	start := time.Now()
	d.Publish(context.Background(), "e")
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Wait(context.Background()))
}

func TestDispatcher_DeliveryOutlivesPublisherContext(t *testing.T) {
	d := newTestDispatcher()

	errCh := make(chan error, 1)
	d.Subscribe("ctx", func(ctx context.Context, _ string) error {
		time.Sleep(10 * time.Millisecond)
		errCh <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Publish(ctx, "e")
	cancel()

	require.NoError(t, d.Wait(context.Background()))
	assert.NoError(t, <-errCh)
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	d := newTestDispatcher()
	d.Publish(context.Background(), "e")
	assert.NoError(t, d.Wait(context.Background()))
}

func TestDispatcher_DropsEventsOnceDraining(t *testing.T) {
	d := newTestDispatcher()

	var delivered atomic.Int32
	d.Subscribe("count", func(context.Context, string) error {
		delivered.Add(1)
		return nil
	})

	d.Publish(context.Background(), "before")
	require.NoError(t, d.Wait(context.Background()))

	d.Publish(context.Background(), "after")
	require.NoError(t, d.Wait(context.Background()))

	assert.Equal(t, int32(1), delivered.Load())
}

func TestDispatcher_PublishRacingWait(t *testing.T) {
	d := newTestDispatcher()
	d.Subscribe("noop", func(context.Context, string) error { return nil })

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				d.Publish(context.Background(), "e")
			}
		}()
	}

	require.NoError(t, d.Wait(context.Background()))
	wg.Wait()
}
