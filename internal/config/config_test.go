package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"TICK_INTERVAL_MS", "RESULT_TTL_HOURS", "ALLOW_RETAKE", "ALLOWED_ORIGINS", "JWT_EXPIRY_HOURS"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.TickInterval)
	}
	if cfg.ResultTTL != 72*time.Hour {
		t.Errorf("ResultTTL = %v, want 72h", cfg.ResultTTL)
	}
	if cfg.AllowRetake {
		t.Error("AllowRetake defaults to true")
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v, want nil", cfg.AllowedOrigins)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 24h", cfg.JWTExpiry)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TICK_INTERVAL_MS", "250")
	t.Setenv("ALLOW_RETAKE", "true")
	t.Setenv("TEST_CACHE_TTL_MINUTES", "5")
	t.Setenv("MAX_DB_CONNS", "not-a-number")

	cfg := Load()
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %v, want 250ms", cfg.TickInterval)
	}
	if !cfg.AllowRetake {
		t.Error("AllowRetake not set")
	}
	if cfg.TestCacheTTL != 5*time.Minute {
		t.Errorf("TestCacheTTL = %v, want 5m", cfg.TestCacheTTL)
	}
	if cfg.MaxDBConns != 16 {
		t.Errorf("MaxDBConns = %d, want fallback 16", cfg.MaxDBConns)
	}
}

func TestParseOrigins(t *testing.T) {
	got := parseOrigins(" https://a.example , ,https://b.example")
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseOrigins = %v, want %v", got, want)
	}
}

func TestKeys(t *testing.T) {
	if got := CacheKey.ResultKey(7, "abc"); got != "user:7:test:abc:result" {
		t.Errorf("ResultKey = %q", got)
	}
	if got := CacheKey.TestPayloadKey("abc"); got != "test:abc:payload" {
		t.Errorf("TestPayloadKey = %q", got)
	}
}
