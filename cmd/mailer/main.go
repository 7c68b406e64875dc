package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/mailer"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := run(cfg, logger); err != nil {
		logger.Error("mailer stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RabbitMQ.URL == "" {
		return errors.New("RABBITMQ_URL environment variable is required")
	}

	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, "mailer", cfg.ServiceVersion)
		if err != nil {
			return err
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	mq, err := messaging.DialMail(cfg.RabbitMQ.URL, cfg.RabbitMQ.MailQueue)
	if err != nil {
		return err
	}
	defer func() { _ = mq.Close() }()

	consumer := messaging.NewMailConsumer(mq.Channel, cfg.RabbitMQ.MailQueue, logger)
	handler := mailer.NewHandler(logger)

	logger.Info("starting mailer", "queue", cfg.RabbitMQ.MailQueue)

	err = consumer.Consume(ctx, handler.Deliver)
	if err == nil || ctx.Err() != nil {
		logger.Info("mailer stopped")
		return nil
	}
	return err
}
