package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("PG_ADMIN_KEY", "test-admin-key")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8002", cfg.ServicePort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"localhost:9093"}, cfg.KafkaBrokers)
	assert.Equal(t, "order.canceled.v1", cfg.OrderCanceledTopic)
	assert.Equal(t, "KakaoAK", cfg.Gateway.AuthScheme)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Payment.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.Payment.ApprovedRetention)
	assert.Equal(t, 30*time.Second, cfg.Payment.LockTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVICE_PORT", "9000")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("PG_TIMEOUT", "5s")
	t.Setenv("SESSION_TTL", "20m")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.ServicePort)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 20*time.Minute, cfg.Payment.SessionTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogDevelopment)
}

func TestLoad_MissingAdminKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AdminKey")
}

func TestLoad_LockMustOutliveGatewayTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PG_TIMEOUT", "30s")
	t.Setenv("LOCK_TTL", "10s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCK_TTL")
}

func TestLoad_KafkaDisabledAllowsEmptyBrokers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", ",")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestGetEnvAsDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "fifteen minutes")
	assert.Equal(t, time.Minute, getEnvAsDuration("SESSION_TTL", time.Minute))
}
