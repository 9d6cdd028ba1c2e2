// Package server provides configuration helpers that define runtime defaults
// and validation for the roomchat service.
package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultPort            = ":3000"
	defaultMaxMessageSize  = 4096
	defaultSendBufferSize  = 256
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the server configuration settings.
type Config struct {
	Port            string        `env:"ROOMCHAT_PORT" envDefault:":3000"`
	AllowedOrigins  []string      `env:"ROOMCHAT_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	MaxMessageSize  int64         `env:"ROOMCHAT_MAX_MESSAGE_SIZE" envDefault:"4096"`
	SendBufferSize  int           `env:"ROOMCHAT_SEND_BUFFER" envDefault:"256"`
	ShutdownTimeout time.Duration `env:"ROOMCHAT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	return &Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
		},
		MaxMessageSize:  defaultMaxMessageSize,
		SendBufferSize:  defaultSendBufferSize,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// LoadConfig reads the configuration from ROOMCHAT_* environment variables,
// falling back to defaults for anything unset or out of range.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	sanitized := sanitizeConfig(cfg)
	return &sanitized, nil
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}
