// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"cyberquest/internal/store"
)

// Config holds all application configuration.
type Config struct {
	BackendURL  string
	ChatTimeout time.Duration
	DBPath      string
	LogLevel    string // "debug", "info", "warn", "error"
	SessionID   string // optional override; empty means generate one
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		BackendURL:  getEnv("CYBERQUEST_BACKEND_URL", "http://localhost:8000/api"),
		ChatTimeout: getEnvDuration("CYBERQUEST_CHAT_TIMEOUT", 45*time.Second),
		DBPath:      getEnv("CYBERQUEST_DB", defaultDBPath()),
		LogLevel:    getEnv("CYBERQUEST_LOG", "info"),
		SessionID:   getEnv("CYBERQUEST_SESSION_ID", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CYBERQUEST_BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}
	if c.ChatTimeout <= 0 {
		return fmt.Errorf("CYBERQUEST_CHAT_TIMEOUT must be > 0")
	}
	if c.DBPath == "" {
		return fmt.Errorf("CYBERQUEST_DB cannot be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("CYBERQUEST_LOG must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

func defaultDBPath() string {
	p, err := store.DefaultDBPath()
	if err != nil {
		return "cyberquest.db"
	}
	return p
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
