package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SNAPSHOT_STORE", "")
	t.Setenv("SUPPORTED_LANGUAGES", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SnapshotStore != "redis" {
		t.Fatalf("expected redis snapshot store by default, got %s", cfg.SnapshotStore)
	}
	if cfg.SnapshotTTL != time.Hour {
		t.Fatalf("expected one hour snapshot ttl, got %s", cfg.SnapshotTTL)
	}
	if cfg.MinPhoneDigits != 11 {
		t.Fatalf("expected 11 phone digits, got %d", cfg.MinPhoneDigits)
	}
	if len(cfg.SupportedLanguages) != 3 || cfg.SupportedLanguages[0] != "en" {
		t.Fatalf("unexpected default languages %v", cfg.SupportedLanguages)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SALON_API_BASE_URL", "https://api.example.test")
	t.Setenv("SALON_API_TIMEOUT", "3s")
	t.Setenv("SNAPSHOT_STORE", " Postgres ")
	t.Setenv("SNAPSHOT_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, ,https://b.test")
	t.Setenv("MIN_PHONE_DIGITS", "12")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("REDIS_TLS", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.SalonAPIBaseURL != "https://api.example.test" {
		t.Fatalf("expected api override, got %s", cfg.SalonAPIBaseURL)
	}
	if cfg.SalonAPITimeout != 3*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.SalonAPITimeout)
	}
	if cfg.SnapshotStore != "postgres" {
		t.Fatalf("expected normalized store name, got %q", cfg.SnapshotStore)
	}
	if cfg.SnapshotTTL != 30*time.Minute {
		t.Fatalf("expected ttl override, got %s", cfg.SnapshotTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MinPhoneDigits != 12 {
		t.Fatalf("expected phone digits override, got %d", cfg.MinPhoneDigits)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rps override, got %v", cfg.RateLimitRPS)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MIN_PHONE_DIGITS", "eleven")
	t.Setenv("SESSION_IDLE_TTL", "soon")
	cfg := Load()
	if cfg.MinPhoneDigits != 11 {
		t.Fatalf("expected fallback digits, got %d", cfg.MinPhoneDigits)
	}
	if cfg.SessionIdleTTL != 2*time.Hour {
		t.Fatalf("expected fallback idle ttl, got %s", cfg.SessionIdleTTL)
	}
}
