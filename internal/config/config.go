// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with sensible
// defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Auth       AuthConfig
	Extraction ExtractionConfig
	Transfer   TransferConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig holds record store settings.
//
// Backend selects which implementation backs the gateway: "memory" runs the
// in-process realtime tree store, "postgres" runs the document store on a
// PostgreSQL connection pool.
type StoreConfig struct {
	// Backend is the store implementation: memory or postgres (default: memory)
	Backend string `env:"STORE_BACKEND" default:"memory"`

	// URL is the PostgreSQL connection string (required for the postgres backend)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// AuthConfig holds authentication provider settings.
type AuthConfig struct {
	// Provider selects the sign-in backend: rest or local (default: local)
	Provider string `env:"AUTH_PROVIDER" default:"local"`

	// Endpoint is the remote identity provider URL (required for the rest provider)
	Endpoint string `env:"AUTH_ENDPOINT"`

	// APIKey is appended to identity requests when the provider requires one
	APIKey string `env:"AUTH_API_KEY"`

	// Timeout bounds a single sign-in round trip (default: 15s)
	Timeout time.Duration `env:"AUTH_TIMEOUT" default:"15s"`
}

// ExtractionConfig holds settings for the remote spreadsheet extraction service.
type ExtractionConfig struct {
	// Endpoint is the extraction service URL. Imports are disabled when empty.
	Endpoint string `env:"EXTRACTION_ENDPOINT"`

	// Timeout bounds a single extraction round trip (default: 60s)
	Timeout time.Duration `env:"EXTRACTION_TIMEOUT" default:"60s"`

	// MaxFileSize is the maximum spreadsheet size in bytes (default: 10MB)
	MaxFileSize int64 `env:"EXTRACTION_MAX_FILE_SIZE" default:"10485760"`
}

// TransferConfig holds local file boundary settings for import/export.
type TransferConfig struct {
	// PickDir is the directory the local file picker reads from (default: ./incoming)
	PickDir string `env:"TRANSFER_PICK_DIR" default:"incoming"`

	// CacheDir is where exports are staged before sharing (default: ./cache)
	CacheDir string `env:"TRANSFER_CACHE_DIR" default:"cache"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey gates all /api routes behind X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Store validation
	switch strings.ToLower(c.Store.Backend) {
	case "memory":
	case "postgres":
		if c.Store.URL == "" {
			errs = append(errs, "DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_BACKEND (%q) must be one of: memory, postgres", c.Store.Backend))
	}
	if c.Store.MaxConns < c.Store.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Store.MaxConns, c.Store.MinConns))
	}
	if c.Store.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Store.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Auth validation
	switch strings.ToLower(c.Auth.Provider) {
	case "local":
	case "rest":
		if c.Auth.Endpoint == "" {
			errs = append(errs, "AUTH_ENDPOINT is required when AUTH_PROVIDER is rest")
		}
	default:
		errs = append(errs, fmt.Sprintf("AUTH_PROVIDER (%q) must be one of: local, rest", c.Auth.Provider))
	}
	if c.Auth.Timeout <= 0 {
		errs = append(errs, "AUTH_TIMEOUT must be positive")
	}

	// Extraction validation
	if c.Extraction.Timeout <= 0 {
		errs = append(errs, "EXTRACTION_TIMEOUT must be positive")
	}
	if c.Extraction.MaxFileSize <= 0 {
		errs = append(errs, "EXTRACTION_MAX_FILE_SIZE must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like connection strings and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Store: {Backend: %q, URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Store.Backend, c.Store.MaxConns, c.Store.MinConns))
	b.WriteString(fmt.Sprintf("Auth: {Provider: %q, Endpoint: %q, APIKey: [MASKED]}, ",
		c.Auth.Provider, c.Auth.Endpoint))
	b.WriteString(fmt.Sprintf("Extraction: {Endpoint: %q, MaxFileSize: %d}, ",
		c.Extraction.Endpoint, c.Extraction.MaxFileSize))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
