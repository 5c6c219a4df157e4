package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Routing
	ConfidenceThreshold float64
	CatalogFile         string // optional YAML override for the built-in catalog

	// Telegram
	TelegramBotToken      string
	TelegramAPIURL        string
	TelegramWebhookSecret string
	AllowedTelegramIDs    []int64 // empty list disables the whitelist

	// Bitrix24
	BitrixDomain       string
	BitrixClientID     string
	BitrixClientSecret string
	BitrixRedirectURL  string

	// DaData
	DadataAPIKey    string
	DadataSecretKey string
	DadataBaseURL   string

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Postgres
	DatabaseURL string

	// Admin API
	AdminJWTSecret string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ConfidenceThreshold: getEnvFloat("ROUTER_CONFIDENCE_THRESHOLD", 0.75),
		CatalogFile:         getEnv("SCENARIO_CATALOG_FILE", ""),

		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:        getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramWebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		AllowedTelegramIDs:    getEnvInt64List("ALLOWED_TELEGRAM_IDS"),

		BitrixDomain:       getEnv("BITRIX_DOMAIN", ""),
		BitrixClientID:     getEnv("BITRIX_CLIENT_ID", ""),
		BitrixClientSecret: getEnv("BITRIX_CLIENT_SECRET", ""),
		BitrixRedirectURL:  getEnv("BITRIX_REDIRECT_URL", ""),

		DadataAPIKey:    getEnv("DADATA_API_KEY", ""),
		DadataSecretKey: getEnv("DADATA_SECRET_KEY", ""),
		DadataBaseURL:   getEnv("DADATA_BASE_URL", "https://suggestions.dadata.ru"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvInt64List parses a comma-separated list of integers, e.g.
// ALLOWED_TELEGRAM_IDS=123456,987654. Malformed entries are skipped.
func getEnvInt64List(key string) []int64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}
