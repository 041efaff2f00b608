package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig is the environment surface of the configured server.
//
//	PORT          - listen port (default "8080")
//	ENVIRONMENT   - development, production, testing
//	DATABASE_URL  - "memory" or a postgresql:// connection string
//	JWT_SECRET    - HMAC secret for verifying identity-provider tokens
//	EVENT_LOGGING - log every content mutation (default true)
type envConfig struct {
	Port         string `env:"PORT" env-default:""`
	Environment  string `env:"ENVIRONMENT" env-default:""`
	DatabaseURL  string `env:"DATABASE_URL" env-default:""`
	JWTSecret    string `env:"JWT_SECRET" env-default:""`
	EventLogging bool   `env:"EVENT_LOGGING" env-default:"true"`
}

// WithEnv applies environment variable overrides on top of the defaults.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var ec envConfig
		if err := cleanenv.ReadEnv(&ec); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}

		if ec.Port != "" {
			c.Port = ec.Port
		}
		if ec.Environment != "" {
			c.Environment = ec.Environment
		}
		if ec.JWTSecret != "" {
			c.JWTSecret = ec.JWTSecret
		}
		c.EnableEventLogging = ec.EventLogging

		return applyDatabaseURL(c, ec.DatabaseURL)
	}
}

// applyDatabaseURL derives the database type from the URL scheme. Empty or
// "memory" selects the in-memory repository.
func applyDatabaseURL(c *ServerConfig, url string) error {
	if url == "" || url == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(url, "postgresql://") || strings.HasPrefix(url, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = url
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", url)
}
