// Package config centralises configuration parsing for the meal-plan service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config captures runtime configuration values for the meal-plan service.
type Config struct {
	HTTPAddress    string `env:"HTTP_ADDRESS,default=:8080"`
	MetricsAddress string `env:"METRICS_ADDRESS,default=:9102"`
	LogMode        string `env:"LOG_MODE,default=development"`
	ServiceVersion string `env:"SERVICE_VERSION,default=0.1.0"`

	// PostgresURL selects the Postgres store; empty runs on the in-memory store.
	PostgresURL string `env:"POSTGRES_URL"`

	KafkaBrokers       string        `env:"KAFKA_BROKERS,default=kafka:9092"`
	SchemaRegistryURL  string        `env:"SCHEMA_REGISTRY_URL,default=http://schema-registry:8081"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL,default=2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE,default=25"`
	OutboxEnabled      bool          `env:"OUTBOX_ENABLED,default=true"`

	DLQMaxRetries   int           `env:"DLQ_MAX_RETRIES,default=5"`
	DLQBaseDelay    time.Duration `env:"DLQ_BASE_DELAY,default=1m"`
	DLQPollInterval time.Duration `env:"DLQ_POLL_INTERVAL,default=30s"`
	DLQBatchSize    int           `env:"DLQ_BATCH_SIZE,default=50"`

	CORSOrigins string `env:"CORS_ORIGINS,default=http://localhost:5173"`

	JWTSecret string `env:"JWT_SECRET,default=dev-secret-change-me"`
	JWTIssuer string `env:"JWT_ISSUER,default=i5e.identity"`

	ConsumerGroupID string `env:"CONSUMER_GROUP_ID,default=mealplan-workout-projection"`
	ConsumerTopics  string `env:"CONSUMER_TOPICS,default=activity_events,program_events"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL,default=5m"`
	CatalogPath     string        `env:"CATALOG_PATH"`
	CatalogS3Bucket string        `env:"CATALOG_S3_BUCKET"`
	CatalogS3Key    string        `env:"CATALOG_S3_KEY,default=catalog/foods.json"`

	WorkoutWindow         time.Duration `env:"WORKOUT_WINDOW,default=72h"`
	RequireWorkoutContext bool          `env:"REQUIRE_WORKOUT_CONTEXT,default=true"`

	OTelEnabled  bool   `env:"OTEL_ENABLED,default=false"`
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads environment variables into Config, applying defaults suited to local dev.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.OutboxBatchSize <= 0 {
		return Config{}, fmt.Errorf("config: OUTBOX_BATCH_SIZE must be > 0, got %d", cfg.OutboxBatchSize)
	}
	return cfg, nil
}

// Brokers splits KAFKA_BROKERS.
func (c Config) Brokers() []string {
	return splitAndTrim(c.KafkaBrokers)
}

// Origins splits CORS_ORIGINS.
func (c Config) Origins() []string {
	return splitAndTrim(c.CORSOrigins)
}

// Topics splits CONSUMER_TOPICS.
func (c Config) Topics() []string {
	return splitAndTrim(c.ConsumerTopics)
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
