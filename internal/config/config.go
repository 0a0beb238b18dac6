package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Addr    string
	BaseURL string

	DBDSN string

	Redis RedisConfig
	SMTP  SMTPConfig
	Kafka KafkaConfig

	IdempotencyTTLHours int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host          string
	Port          string
	Username      string
	Password      string
	FromName      string
	FromAddress   string
	TLSMode       string // "", "starttls", "tls"
	SkipVerifyTLS bool
}

type KafkaConfig struct {
	BrokersCSV string
	OrderTopic string
}

// FromEnv reads configuration from environment variables. cmd/web loads a
// .env first via godotenv; production supplies real env vars.
func FromEnv() (Config, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return Config{}, fmt.Errorf("DB_DSN environment variable is required")
	}

	cfg := Config{
		Addr:    envOr("HTTP_ADDR", ":8080"),
		BaseURL: envOr("BASE_URL", "http://localhost:8080"),
		DBDSN:   dsn,
		Redis: RedisConfig{
			Addr:     envOr("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envIntOr("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:          os.Getenv("SMTP_HOST"),
			Port:          envOr("SMTP_PORT", "587"),
			Username:      os.Getenv("SMTP_USERNAME"),
			Password:      os.Getenv("SMTP_PASSWORD"),
			FromName:      envOr("SMTP_FROM_NAME", "Merchantry"),
			FromAddress:   envOr("SMTP_FROM_ADDRESS", "no-reply@merchantry.io"),
			TLSMode:       os.Getenv("SMTP_TLS_MODE"),
			SkipVerifyTLS: os.Getenv("SMTP_TLS_SKIP_VERIFY") == "1",
		},
		Kafka: KafkaConfig{
			BrokersCSV: os.Getenv("KAFKA_BROKERS"),
			OrderTopic: envOr("KAFKA_ORDER_TOPIC", "orders.created"),
		},
		IdempotencyTTLHours: envIntOr("IDEMPOTENCY_TTL_HOURS", 24),
	}
	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envIntOr(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
