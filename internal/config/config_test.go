package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, ":8090", cfg.RealtimeAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"GCash"}, cfg.PrepaidPaymentMethods)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, time.Hour, cfg.LowStockInterval)
	assert.Equal(t, "cafe.orders", cfg.RabbitMQExchange)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "cafe:admin-events", cfg.RedisChannel)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_DSN", "host=db user=cafe")
	t.Setenv("PREPAID_PAYMENT_METHODS", "GCash, Maya ,")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOW_STOCK_INTERVAL", "15m")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"GCash", "Maya"}, cfg.PrepaidPaymentMethods)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.LowStockInterval)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cafe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET: from-file\nLOW_STOCK_THRESHOLD: 3\n"), 0o600))
	t.Setenv("LOW_STOCK_THRESHOLD", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 7, cfg.LowStockThreshold, "environment wins over the file")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no secret", map[string]string{}},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "DB_DRIVER": "mysql"}},
		{"zero threshold", map[string]string{"JWT_SECRET": "x", "LOW_STOCK_THRESHOLD": "0"}},
		{"negative interval", map[string]string{"JWT_SECRET": "x", "LOW_STOCK_INTERVAL": "-1m"}},
		{"bad log format", map[string]string{"JWT_SECRET": "x", "LOG_FORMAT": "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
