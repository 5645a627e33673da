package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"cafe/internal/database"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort      string
	RealtimeAddr string

	DBDriver    string
	DatabaseDSN string

	JWTSecret             string
	PrepaidPaymentMethods []string
	LowStockThreshold     int
	LowStockInterval      time.Duration

	RabbitMQURL      string
	RabbitMQExchange string
	KafkaBrokers     []string
	KafkaTopic       string
	RedisAddr        string
	RedisChannel     string

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("REALTIME_ADDR", ":8090")
	v.SetDefault("DB_DRIVER", database.DriverSQLite)
	v.SetDefault("DATABASE_DSN", "cafe.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("PREPAID_PAYMENT_METHODS", "GCash")
	v.SetDefault("LOW_STOCK_THRESHOLD", 5)
	v.SetDefault("LOW_STOCK_INTERVAL", time.Hour)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "cafe.orders")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "cafe.order-events")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_CHANNEL", "cafe:admin-events")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads the configuration from the environment and, when path is not
// empty, from that file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg := &Config{
		AppPort:               v.GetString("APP_PORT"),
		RealtimeAddr:          v.GetString("REALTIME_ADDR"),
		DBDriver:              strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:           v.GetString("DATABASE_DSN"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		PrepaidPaymentMethods: splitList(v.GetString("PREPAID_PAYMENT_METHODS")),
		LowStockThreshold:     v.GetInt("LOW_STOCK_THRESHOLD"),
		LowStockInterval:      v.GetDuration("LOW_STOCK_INTERVAL"),
		RabbitMQURL:           v.GetString("RABBITMQ_URL"),
		RabbitMQExchange:      v.GetString("RABBITMQ_EXCHANGE"),
		KafkaBrokers:          splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:            v.GetString("KAFKA_TOPIC"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisChannel:          v.GetString("REDIS_CHANNEL"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFormat:             strings.ToLower(v.GetString("LOG_FORMAT")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting the service cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET must be set")
	case c.DBDriver != database.DriverSQLite && c.DBDriver != database.DriverPostgres:
		return errors.Errorf("DB_DRIVER must be %q or %q, got %q", database.DriverSQLite, database.DriverPostgres, c.DBDriver)
	case c.DatabaseDSN == "":
		return errors.New("DATABASE_DSN must be set")
	case c.LowStockThreshold <= 0:
		return errors.Errorf("LOW_STOCK_THRESHOLD must be positive, got %d", c.LowStockThreshold)
	case c.LowStockInterval <= 0:
		return errors.Errorf("LOW_STOCK_INTERVAL must be positive, got %s", c.LowStockInterval)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return errors.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
