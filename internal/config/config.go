package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// ─── Admission client ──────────────────────────────────────────────
	APIBaseURL      string
	HTTPTimeout     time.Duration
	PollInterval    time.Duration
	TickInterval    time.Duration
	WindowMinutes   int
	DefaultDuration int

	// ─── Shared ────────────────────────────────────────────────────────
	LogLevel  string
	LogFormat string

	// ─── Local exam API ────────────────────────────────────────────────
	ServerPort         string
	GinMode            string
	StoreBackend       string
	RedisURL           string
	FixturePath        string
	RateLimitPerMinute int
	// AllowedOrigins controls HTTP CORS.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error, .env is optional

	return &Config{
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8080"),
		HTTPTimeout:     time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		PollInterval:    time.Duration(getEnvInt("POLL_INTERVAL_MS", 5000)) * time.Millisecond,
		TickInterval:    time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		WindowMinutes:   getEnvInt("ADMISSION_WINDOW_MINUTES", 15),
		DefaultDuration: getEnvInt("DEFAULT_EXAM_DURATION_MINUTES", 60),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "pretty"),

		ServerPort:         getEnv("SERVER_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", "memory")),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		FixturePath:        getEnv("FIXTURE_PATH", "fixtures/exams.yaml"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
