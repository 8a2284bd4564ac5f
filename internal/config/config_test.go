package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("INVITATION_TTL_DAYS", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("INVITATION_EXPIRY_SCHEDULE", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want %q", cfg.Port, "8080")
	}
	if got := cfg.InvitationTTL(); got != 14*24*time.Hour {
		t.Errorf("InvitationTTL: got %v", got)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL: got %v", cfg.CacheTTL)
	}
	if cfg.InvitationExpirySchedule != "0 3 * * *" {
		t.Errorf("InvitationExpirySchedule: got %q", cfg.InvitationExpirySchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("SMTP_USE_TLS", "yes")
	t.Setenv("EMAIL_WORKERS", "8")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port: got %q", cfg.Port)
	}
	if !cfg.SMTPUseTLS {
		t.Error("SMTPUseTLS: got false, want true")
	}
	if cfg.EmailWorkers != 8 {
		t.Errorf("EmailWorkers: got %d, want 8", cfg.EmailWorkers)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL: got %v", cfg.CacheTTL)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction: got false")
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")
	t.Setenv("CACHE_TTL", "soon")

	cfg := Load()

	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort: got %d, want 587", cfg.SMTPPort)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL: got %v, want 5m", cfg.CacheTTL)
	}
}
