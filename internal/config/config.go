package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Salon backend REST API
	SalonAPIBaseURL string
	SalonAPITimeout time.Duration
	SalonID         string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DatabaseURL   string

	// Wizard persistence and sessions
	SnapshotStore  string
	SnapshotTTL    time.Duration
	SessionIdleTTL time.Duration

	ClientJWTSecret    string
	OpsToken           string
	CORSAllowedOrigins []string
	SupportedLanguages []string
	MinPhoneDigits     int
	BookingSource      string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		SalonAPIBaseURL: getEnv("SALON_API_BASE_URL", "http://localhost:3000"),
		SalonAPITimeout: getEnvAsDuration("SALON_API_TIMEOUT", 15*time.Second),
		SalonID:         getEnv("SALON_ID", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		SnapshotStore:  strings.ToLower(strings.TrimSpace(getEnv("SNAPSHOT_STORE", "redis"))),
		SnapshotTTL:    getEnvAsDuration("SNAPSHOT_TTL", time.Hour),
		SessionIdleTTL: getEnvAsDuration("SESSION_IDLE_TTL", 2*time.Hour),

		ClientJWTSecret:    getEnv("CLIENT_JWT_SECRET", ""),
		OpsToken:           getEnv("OPS_TOKEN", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		SupportedLanguages: getEnvAsList("SUPPORTED_LANGUAGES", []string{"en", "ru", "uz"}),
		MinPhoneDigits:     getEnvAsInt("MIN_PHONE_DIGITS", 11),
		BookingSource:      getEnv("BOOKING_SOURCE", "website"),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
