// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN backing both the document collections and the analytics tables.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. http://localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Telemetry (optional). When Kafka brokers are set, pipeline stage events are emitted to Kafka.
	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the Kafka topic for pipeline telemetry events (default shq-pipeline).
	KafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push pipeline events (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// DeleteBatchSize is how many document refs are deleted per batch during collection replacement.
	DeleteBatchSize int `mapstructure:"DELETE_BATCH_SIZE"`
	// DeleteConcurrency is the worker pool size for batched deletion. In-flight batches are capped at 2x this value.
	DeleteConcurrency int `mapstructure:"DELETE_CONCURRENCY"`
	// InsertBatchSize is how many documents are written per multi-set batch.
	InsertBatchSize int `mapstructure:"INSERT_BATCH_SIZE"`
	// IngestChunkSize is how many analytics rows are inserted per chunk.
	IngestChunkSize int `mapstructure:"INGEST_CHUNK_SIZE"`
	// IngestMaxAttempts is how many times a chunk insert is attempted when the table is transiently missing.
	IngestMaxAttempts int `mapstructure:"INGEST_MAX_ATTEMPTS"`
	// IngestRetryBase is the initial retry delay for chunk inserts; it doubles on each attempt (e.g. "1s").
	IngestRetryBase string `mapstructure:"INGEST_RETRY_BASE"`
	// TruncateSettleDelay is how long the pipeline waits after truncating analytics tables before
	// inserting, to narrow the table-missing race window (e.g. "2s").
	TruncateSettleDelay string `mapstructure:"TRUNCATE_SETTLE_DELAY"`

	// Demo dataset generation parameters.
	MinProjectsPerCompany int `mapstructure:"DEMO_MIN_PROJECTS_PER_COMPANY"`
	MaxProjectsPerCompany int `mapstructure:"DEMO_MAX_PROJECTS_PER_COMPANY"`
	// ProjectStartDelayDays is how long after a company's earliest registration its project window opens.
	ProjectStartDelayDays int `mapstructure:"DEMO_PROJECT_START_DELAY_DAYS"`
	// TrendingMetricsCount is how many of the tracked metrics get trending data per company.
	TrendingMetricsCount int `mapstructure:"DEMO_TRENDING_METRICS_COUNT"`
	// TrendingIntervalDays is the spacing between trending data points.
	TrendingIntervalDays int `mapstructure:"DEMO_TRENDING_DATA_INTERVAL_DAYS"`
	// TrendingPeriodDays is the lookback window covered by trending data.
	TrendingPeriodDays int `mapstructure:"DEMO_TRENDING_DATA_PERIOD_DAYS"`
	// MinRenewalDays / MaxRenewalDays bound how far in the future renewal due dates fall.
	MinRenewalDays int `mapstructure:"DEMO_MIN_RENEWAL_DAYS"`
	MaxRenewalDays int `mapstructure:"DEMO_MAX_RENEWAL_DAYS"`
	// MaxRegDelayMinutes is the max random jitter subtracted from seed-user registration timestamps.
	MaxRegDelayMinutes int `mapstructure:"DEMO_MAX_REG_DELAY_MINUTES"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "shq-pipeline")
	v.SetDefault("KAFKA_GROUP_ID", "")
	v.SetDefault("LOKI_URL", "")

	v.SetDefault("DELETE_BATCH_SIZE", 500)
	v.SetDefault("DELETE_CONCURRENCY", 10)
	v.SetDefault("INSERT_BATCH_SIZE", 500)
	v.SetDefault("INGEST_CHUNK_SIZE", 10000)
	v.SetDefault("INGEST_MAX_ATTEMPTS", 3)
	v.SetDefault("INGEST_RETRY_BASE", "1s")
	v.SetDefault("TRUNCATE_SETTLE_DELAY", "2s")

	v.SetDefault("DEMO_MIN_PROJECTS_PER_COMPANY", 1)
	v.SetDefault("DEMO_MAX_PROJECTS_PER_COMPANY", 3)
	v.SetDefault("DEMO_PROJECT_START_DELAY_DAYS", 90)
	v.SetDefault("DEMO_TRENDING_METRICS_COUNT", 3)
	v.SetDefault("DEMO_TRENDING_DATA_INTERVAL_DAYS", 7)
	v.SetDefault("DEMO_TRENDING_DATA_PERIOD_DAYS", 30)
	v.SetDefault("DEMO_MIN_RENEWAL_DAYS", 30)
	v.SetDefault("DEMO_MAX_RENEWAL_DAYS", 120)
	v.SetDefault("DEMO_MAX_REG_DELAY_MINUTES", 120)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	if c.DeleteBatchSize <= 0 {
		return errors.New("DELETE_BATCH_SIZE must be positive")
	}
	if c.DeleteConcurrency <= 0 {
		return errors.New("DELETE_CONCURRENCY must be positive")
	}
	if c.InsertBatchSize <= 0 {
		return errors.New("INSERT_BATCH_SIZE must be positive")
	}
	if c.IngestChunkSize <= 0 {
		return errors.New("INGEST_CHUNK_SIZE must be positive")
	}
	if c.IngestMaxAttempts <= 0 {
		return errors.New("INGEST_MAX_ATTEMPTS must be positive")
	}
	if _, err := time.ParseDuration(c.IngestRetryBase); err != nil {
		return errors.New("INGEST_RETRY_BASE must be a duration (e.g. 1s)")
	}
	if _, err := time.ParseDuration(c.TruncateSettleDelay); err != nil {
		return errors.New("TRUNCATE_SETTLE_DELAY must be a duration (e.g. 2s)")
	}
	if c.MinProjectsPerCompany <= 0 || c.MaxProjectsPerCompany < c.MinProjectsPerCompany {
		return errors.New("DEMO_MIN/MAX_PROJECTS_PER_COMPANY must be positive and ordered")
	}
	if c.TrendingIntervalDays <= 0 || c.TrendingPeriodDays <= 0 {
		return errors.New("DEMO_TRENDING_DATA_INTERVAL_DAYS and DEMO_TRENDING_DATA_PERIOD_DAYS must be positive")
	}
	if c.MinRenewalDays <= 0 || c.MaxRenewalDays < c.MinRenewalDays {
		return errors.New("DEMO_MIN/MAX_RENEWAL_DAYS must be positive and ordered")
	}
	if c.MaxRegDelayMinutes < 0 {
		return errors.New("DEMO_MAX_REG_DELAY_MINUTES must not be negative")
	}
	return nil
}

// KafkaBrokersList splits KafkaBrokers on commas, trimming whitespace. Empty input returns nil.
func (c *Config) KafkaBrokersList() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IngestRetryBaseDuration returns INGEST_RETRY_BASE parsed; Load guarantees it is valid.
func (c *Config) IngestRetryBaseDuration() time.Duration {
	d, _ := time.ParseDuration(c.IngestRetryBase)
	return d
}

// TruncateSettleDelayDuration returns TRUNCATE_SETTLE_DELAY parsed; Load guarantees it is valid.
func (c *Config) TruncateSettleDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.TruncateSettleDelay)
	return d
}
