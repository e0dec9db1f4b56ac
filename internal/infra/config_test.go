package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("SYNTHESIS_API_KEY", "test-key")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("GENERATION_BATCH_SIZE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("RedisAddr = %q, want %q", cfg.RedisAddr, "localhost:6379")
	}
	if cfg.BatchSize != 30 {
		t.Fatalf("BatchSize = %d, want 30", cfg.BatchSize)
	}
	if cfg.HTTPReadTimeout != 15*time.Second {
		t.Fatalf("HTTPReadTimeout = %v, want %v", cfg.HTTPReadTimeout, 15*time.Second)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SYNTHESIS_API_KEY", "test-key")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig succeeded without DATABASE_URL")
	}
}

func TestLoadConfigRequiresSynthesisKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("SYNTHESIS_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig succeeded without SYNTHESIS_API_KEY")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("SYNTHESIS_API_KEY", "test-key")
	t.Setenv("GENERATION_BATCH_SIZE", "12")
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "45")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BatchSize != 12 {
		t.Fatalf("BatchSize = %d, want 12", cfg.BatchSize)
	}
	if cfg.HTTPWriteTimeout != 45*time.Second {
		t.Fatalf("HTTPWriteTimeout = %v, want %v", cfg.HTTPWriteTimeout, 45*time.Second)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("RateLimitPerMin = %d, want 120", cfg.RateLimitPerMin)
	}
}
