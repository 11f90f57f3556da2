package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INVITE_TTL", "")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()

	if cfg.InviteTTL != 48*time.Hour {
		t.Fatalf("expected 48h invite ttl, got %s", cfg.InviteTTL)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Fatalf("unexpected base url %q", cfg.PublicBaseURL)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected no brokers, got %v", cfg.KafkaBrokers)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("no proxy may be trusted by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INVITE_TTL", "72h")
	t.Setenv("PUBLIC_BASE_URL", "https://fahrerexpress.de/")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg := Load()

	if cfg.InviteTTL != 72*time.Hour {
		t.Fatalf("expected 72h, got %s", cfg.InviteTTL)
	}
	if cfg.PublicBaseURL != "https://fahrerexpress.de" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.PublicBaseURL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies %v", cfg.TrustedProxies)
	}
	if cfg.AppPort != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.AppPort)
	}
}
