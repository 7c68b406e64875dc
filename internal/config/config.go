package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	ServiceName    string `env:"SERVICE_NAME" envDefault:"storefront"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"0.1.0"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`

	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RabbitMQ  RabbitMQConfig
	Auth      AuthConfig
	Media     MediaConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type PostgresConfig struct {
	URL            string `env:"POSTGRES_URL"`
	MaxOpenConns   int    `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`
}

type RedisConfig struct {
	Addr            string        `env:"REDIS_ADDR"`
	Password        string        `env:"REDIS_PASSWORD"`
	DB              int           `env:"REDIS_DB" envDefault:"0"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`
	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

type KafkaConfig struct {
	Brokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	OrderCreatedTopic string   `env:"ORDER_CREATED_TOPIC" envDefault:"order.created"`
	ConsumerGroup     string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"notification-worker"`
}

type RabbitMQConfig struct {
	URL       string `env:"RABBITMQ_URL"`
	MailQueue string `env:"MAIL_QUEUE" envDefault:"mail"`
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenLifetime time.Duration `env:"JWT_LIFETIME" envDefault:"24h"`
}

// MediaConfig selects where uploaded product images are kept: "file" for a
// local directory served by the API, or "s3" for a bucket.
type MediaConfig struct {
	Backend     string `env:"MEDIA_BACKEND" envDefault:"file"`
	Dir         string `env:"MEDIA_DIR" envDefault:"media"`
	BaseURL     string `env:"MEDIA_URL" envDefault:"/media"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessKey string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Enabled      bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
