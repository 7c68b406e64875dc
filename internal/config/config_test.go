package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CatalogCacheTTL)
	assert.Equal(t, "order.created", cfg.Kafka.OrderCreatedTopic)
	assert.Equal(t, "mail", cfg.RabbitMQ.MailQueue)
	assert.Equal(t, "file", cfg.Media.Backend)
	assert.Equal(t, "/media", cfg.Media.BaseURL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Auth.JWTSecret, "no signing secret unless one is configured")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("POSTGRES_URL", "postgres://u:p@db:5432/store?sslmode=disable")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CATALOG_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db:5432/store?sslmode=disable", cfg.Postgres.URL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Redis.CatalogCacheTTL)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
