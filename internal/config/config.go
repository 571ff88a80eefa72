// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort            = "3001"
	DefaultHost            = "127.0.0.1"
	DefaultDatabaseURL     = "propsync.db"
	DefaultCustomerID      = "1"
	DefaultHubSpotAPIBase  = "https://api.hubapi.com"
	DefaultHubSpotAuthURL  = "https://app.hubspot.com/oauth/authorize"
	DefaultShutdownTimeout = 5 * time.Second
)

// Config holds everything the process reads from its environment.
type Config struct {
	ClientID     string
	ClientSecret string

	Host string
	Port string
	Env  string

	DatabaseURL string
	LogSQL      bool

	RedirectURI       string
	AppURL            string
	DefaultCustomerID string

	HubSpotAPIBase  string
	HubSpotAuthURL  string
	OAuthServiceURL string

	RequiredSchemaFile string
	ShutdownTimeout    time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  Failed to read .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ClientID:           strings.TrimSpace(os.Getenv("CLIENT_ID")),
		ClientSecret:       strings.TrimSpace(os.Getenv("CLIENT_SECRET")),
		Host:               getenv("HOST", DefaultHost),
		Port:               getenv("PORT", DefaultPort),
		Env:                getenv("NODE_ENV", "development"),
		DatabaseURL:        getenv("DATABASE_URL", DefaultDatabaseURL),
		LogSQL:             strings.EqualFold(os.Getenv("LOG_SQL"), "true"),
		AppURL:             getenv("APP_URL", "/"),
		DefaultCustomerID:  getenv("DEFAULT_CUSTOMER_ID", DefaultCustomerID),
		HubSpotAPIBase:     strings.TrimRight(getenv("HUBSPOT_API_BASE", DefaultHubSpotAPIBase), "/"),
		HubSpotAuthURL:     getenv("HUBSPOT_AUTH_URL", DefaultHubSpotAuthURL),
		OAuthServiceURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("OAUTH_SERVICE_URL")), "/"),
		RequiredSchemaFile: strings.TrimSpace(os.Getenv("REQUIRED_SCHEMA_FILE")),
		ShutdownTimeout:    DefaultShutdownTimeout,
	}
	cfg.RedirectURI = getenv("REDIRECT_URI", fmt.Sprintf("http://localhost:%s/oauth-callback", cfg.Port))

	if raw := strings.TrimSpace(os.Getenv("SHUTDOWN_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", raw, err)
		}
		cfg.ShutdownTimeout = d
	}

	if cfg.OAuthServiceURL == "" && (cfg.ClientID == "" || cfg.ClientSecret == "") {
		log.Printf("⚠️  CLIENT_ID / CLIENT_SECRET not set, OAuth exchanges will be rejected by HubSpot")
	}
	return cfg, nil
}

// IsTest reports whether NODE_ENV=test, which disables seeding.
func (c *Config) IsTest() bool {
	return strings.EqualFold(c.Env, "test")
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// UsesPostgres reports whether DatabaseURL points at postgres rather than a sqlite file.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
