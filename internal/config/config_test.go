package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"CLIENT_ID", "CLIENT_SECRET", "HOST", "PORT", "NODE_ENV", "DATABASE_URL",
		"REDIRECT_URI", "APP_URL", "DEFAULT_CUSTOMER_ID", "HUBSPOT_API_BASE", "OAUTH_SERVICE_URL", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:3001" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.RedirectURI != "http://localhost:3001/oauth-callback" {
		t.Errorf("RedirectURI = %q", cfg.RedirectURI)
	}
	if cfg.DefaultCustomerID != "1" {
		t.Errorf("DefaultCustomerID = %q", cfg.DefaultCustomerID)
	}
	if cfg.HubSpotAPIBase != DefaultHubSpotAPIBase {
		t.Errorf("HubSpotAPIBase = %q", cfg.HubSpotAPIBase)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.IsTest() || cfg.UsesPostgres() {
		t.Errorf("unexpected flags: test=%v postgres=%v", cfg.IsTest(), cfg.UsesPostgres())
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://user:pw@localhost:5432/propsync")
	t.Setenv("HUBSPOT_API_BASE", "http://127.0.0.1:9999/")
	t.Setenv("OAUTH_SERVICE_URL", "http://oauth.internal/")
	t.Setenv("SHUTDOWN_TIMEOUT", "250ms")
	t.Setenv("REDIRECT_URI", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.IsTest() {
		t.Error("expected NODE_ENV=test to be detected")
	}
	if !cfg.UsesPostgres() {
		t.Error("expected postgres URL to be detected")
	}
	if cfg.HubSpotAPIBase != "http://127.0.0.1:9999" {
		t.Errorf("trailing slash not trimmed: %q", cfg.HubSpotAPIBase)
	}
	if cfg.OAuthServiceURL != "http://oauth.internal" {
		t.Errorf("OAuthServiceURL = %q", cfg.OAuthServiceURL)
	}
	if cfg.RedirectURI != "http://localhost:8080/oauth-callback" {
		t.Errorf("RedirectURI should follow PORT, got %q", cfg.RedirectURI)
	}
	if cfg.ShutdownTimeout != 250*time.Millisecond {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestFromEnv_RejectsBadShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected an error for an unparsable duration")
	}
}
