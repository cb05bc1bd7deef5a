package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:8080", cfg.CatalogBaseURL)
	assert.Equal(t, "products.json", cfg.CatalogFile)
	assert.Equal(t, 10*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, StorageRedis, cfg.StorageBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Zero(t, cfg.StorageTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, 1.0, cfg.OTelSampleRate)
	assert.Equal(t, 3*time.Second, cfg.ToastDuration)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_FromProcessEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"CATALOG_BASE_URL":   "https://cdn.example.com/shop/",
		"CATALOG_TIMEOUT":    "2s",
		"KAFKA_BROKERS":      "kafka-1:9092,kafka-2:9092",
		"REDIS_ADDR":         "redis.prod:6380",
		"REDIS_DB":           "2",
		"STORAGE_KEY_PREFIX": "tenant-a:",
		"STORAGE_TTL":        "168h",
		"TOAST_DURATION":     "1500ms",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/shop/", cfg.CatalogBaseURL)
	assert.Equal(t, 2*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "redis.prod:6380", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "tenant-a:", cfg.StorageKeyPrefix)
	assert.Equal(t, 168*time.Hour, cfg.StorageTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.ToastDuration)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port zero", map[string]string{"STOREFRONT_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"port too large", map[string]string{"STOREFRONT_HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "sqlite"}, "STORAGE_BACKEND"},
		{"relative catalog url", map[string]string{"CATALOG_BASE_URL": "/static"}, "CATALOG_BASE_URL"},
		{"ftp catalog url", map[string]string{"CATALOG_BASE_URL": "ftp://example.com"}, "CATALOG_BASE_URL"},
		{"zero catalog timeout", map[string]string{"CATALOG_TIMEOUT": "0s"}, "CATALOG_TIMEOUT"},
		{"negative ttl", map[string]string{"STORAGE_TTL": "-1h"}, "STORAGE_TTL"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"zero toast", map[string]string{"TOAST_DURATION": "0s"}, "TOAST_DURATION"},
		{"negative rate", map[string]string{"RATE_LIMIT_RPS": "-1"}, "RATE_LIMIT_RPS"},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}, "RATE_LIMIT_BURST"},
		{"unparsable port", map[string]string{"STOREFRONT_HTTP_PORT": "http"}, "load storefront config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(tt.env)

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
