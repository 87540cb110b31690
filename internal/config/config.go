// Package config loads the terminal's environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv string
	Port   string

	// Business backend the terminal submits orders to.
	BackendBaseURL string
	BackendAPIKey  string
	BackendTimeout time.Duration

	RedisURL           string
	CORSAllowedOrigins []string

	// Catalog cache TTLs; zero disables caching for that resource.
	ProductCacheTTL  time.Duration
	CustomerCacheTTL time.Duration
	SettingsCacheTTL time.Duration

	IdempotencyTTL time.Duration
	ReceiptQueue   string
	ReceiptCopies  int

	LogFormat string
	LogLevel  string

	TracingEnabled  bool
	TracingEndpoint string
	SamplingRatio   float64

	MetricsBucketsCSV string

	// RateLimitPerMin caps write requests per client IP per minute.
	RateLimitPerMin int
	PprofUser       string
	PprofPass       string
}

// Load reads configuration from environment variables and an optional .env
// file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		BackendBaseURL:     strings.TrimSpace(k.String("BACKEND_BASE_URL")),
		BackendAPIKey:      strings.TrimSpace(k.String("BACKEND_API_KEY")),
		BackendTimeout:     parseDuration(k.String("BACKEND_TIMEOUT"), "10s"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		ProductCacheTTL:    parseDuration(k.String("PRODUCT_CACHE_TTL"), "60s"),
		CustomerCacheTTL:   parseDuration(k.String("CUSTOMER_CACHE_TTL"), "60s"),
		SettingsCacheTTL:   parseDuration(k.String("SETTINGS_CACHE_TTL"), "300s"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		ReceiptQueue:       valueOrDefault(k.String("RECEIPT_QUEUE"), "receipts"),
		ReceiptCopies:      intOrDefault(k.String("RECEIPT_COPIES"), 1),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		TracingEnabled:     parseBool(k.String("TRACING_ENABLED")),
		TracingEndpoint:    strings.TrimSpace(k.String("TRACING_ENDPOINT")),
		SamplingRatio:      floatOrDefault(k.String("TRACING_SAMPLING_RATIO"), 1),
		MetricsBucketsCSV:  strings.TrimSpace(k.String("METRICS_BUCKETS_MS")),
		RateLimitPerMin:    intOrDefault(k.String("RATE_LIMIT_PER_MIN"), 600),
		PprofUser:          strings.TrimSpace(k.String("PPROF_BASIC_AUTH_USER")),
		PprofPass:          strings.TrimSpace(k.String("PPROF_BASIC_AUTH_PASS")),
	}

	if cfg.BackendBaseURL == "" {
		return nil, errors.New("BACKEND_BASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func intOrDefault(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func floatOrDefault(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed float64
	if _, err := fmt.Sscanf(trimmed, "%g", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for command
// entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without
// touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
