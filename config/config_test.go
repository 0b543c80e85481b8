package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pharmacart")
	t.Setenv("JWT_SECRET_KEY", "segredo")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 60*time.Minute, cfg.TokenExpiry)
	assert.Equal(t, time.Minute, cfg.OTPCooldown)
	assert.Equal(t, 3, cfg.OrderRetryMax)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pharmacart")
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("ENV", "production")
	t.Setenv("DB_TIMEOUT_SEC", "2")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("OTP_MAX_ATTEMPTS", "abc")

	cfg := LoadConfig()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Second, cfg.DBTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	// valor inválido cai no padrão
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
}

func TestLoadConfig_NegativeRetryMaxIsClamped(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pharmacart")
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("ORDER_RETRY_MAX", "-1")

	cfg := LoadConfig()

	assert.Equal(t, 0, cfg.OrderRetryMax)
}
