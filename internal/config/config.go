package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/config"
)

// Storage backends.
const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds all configuration for the storefront.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Per-client rate limit on /events and /api/v1; 0 RPS disables it.
	RateLimitRPS      float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst    int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
	TrustProxyHeaders bool    `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Catalog
	CatalogBaseURL string        `env:"CATALOG_BASE_URL" envDefault:"http://localhost:8080"`
	CatalogFile    string        `env:"CATALOG_FILE" envDefault:"products.json"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`

	// Cart storage
	StorageBackend   string        `env:"STORAGE_BACKEND" envDefault:"redis"`
	StorageKeyPrefix string        `env:"STORAGE_KEY_PREFIX" envDefault:""`
	StorageTTL       time.Duration `env:"STORAGE_TTL" envDefault:"0s"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka; no brokers disables cart events.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// UI
	ToastDuration time.Duration `env:"TOAST_DURATION" envDefault:"3s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithEnvironment(cfg, environment); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// KafkaEnabled reports whether cart events are published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StorageBackend != StorageRedis && c.StorageBackend != StorageMemory {
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageRedis, StorageMemory, c.StorageBackend)
	}
	u, err := url.Parse(c.CatalogBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CATALOG_BASE_URL must be an absolute http(s) URL, got %q", c.CatalogBaseURL)
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive, got %s", c.CatalogTimeout)
	}
	if c.StorageTTL < 0 {
		return fmt.Errorf("STORAGE_TTL must not be negative, got %s", c.StorageTTL)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTelSampleRate)
	}
	if c.ToastDuration <= 0 {
		return fmt.Errorf("TOAST_DURATION must be positive, got %s", c.ToastDuration)
	}
	return nil
}
