package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/telemetry"
	"github.com/joao-fontenele/storefront/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := run(cfg, logger); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case len(cfg.Kafka.Brokers) == 0:
		return errors.New("KAFKA_BROKERS environment variable is required")
	case cfg.Redis.Addr == "":
		return errors.New("REDIS_ADDR environment variable is required")
	case cfg.RabbitMQ.URL == "":
		return errors.New("RABBITMQ_URL environment variable is required")
	}

	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, "notification-worker", cfg.ServiceVersion)
		if err != nil {
			return err
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	mq, err := messaging.DialMail(cfg.RabbitMQ.URL, cfg.RabbitMQ.MailQueue)
	if err != nil {
		return err
	}
	defer func() { _ = mq.Close() }()

	consumer := messaging.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.OrderCreatedTopic, cfg.Kafka.ConsumerGroup, logger)
	defer func() { _ = consumer.Close() }()

	handler := worker.NewNotificationHandler(
		worker.NewRedisDeduper(rdb, cfg.Redis.IdempotencyTTL),
		messaging.NewMailPublisher(mq.Channel, cfg.RabbitMQ.MailQueue),
		logger,
	)

	logger.Info("starting notification worker", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.OrderCreatedTopic)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if ctx.Err() != nil {
			logger.Info("consumer stopped")
			return nil
		}
		return err
	}
	return nil
}
