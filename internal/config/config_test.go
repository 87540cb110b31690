package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 10*time.Second, cfg.BackendTimeout)
	require.Equal(t, 60*time.Second, cfg.ProductCacheTTL)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, "receipts", cfg.ReceiptQueue)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 600, cfg.RateLimitPerMin)
	require.False(t, cfg.TracingEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", "9000")
	t.Setenv("BACKEND_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://pos.example.com, https://admin.example.com")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("RATE_LIMIT_PER_MIN", "120")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, 2*time.Second, cfg.BackendTimeout)
	require.Equal(t, []string{"https://pos.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.TracingEnabled)
	require.Equal(t, 120, cfg.RateLimitPerMin)
}

func TestLoadRequiredValues(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("BACKEND_BASE_URL", "http://backend.local")
	t.Setenv("REDIS_URL", "")
	_, err = Load()
	require.Error(t, err)
}
