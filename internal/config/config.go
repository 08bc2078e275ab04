package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// DefaultMaxQueryLength bounds translation input size before any network call.
const DefaultMaxQueryLength = 5000

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"PB_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"PB_DB_MAX_CONNS" default:"8"`

	TranslateAppID    string `envconfig:"TRANSLATE_APP_ID" default:""`
	TranslateSecret   string `envconfig:"TRANSLATE_APP_SECRET" default:""`
	TranslateEndpoint string `envconfig:"TRANSLATE_ENDPOINT" default:""`
	TranslateProvider string `envconfig:"TRANSLATION_PROVIDER" default:""`
	MaxQueryLength    int    `envconfig:"TRANSLATE_MAX_QUERY_LENGTH" default:"5000"`

	LocalEndpoint string `envconfig:"TRANSLATE_LOCAL_ENDPOINT" default:""`
	LocalModel    string `envconfig:"TRANSLATE_LOCAL_MODEL" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("PB_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("PB_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("PB_DB_MIN_CONNS (%d) cannot exceed PB_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.MaxQueryLength < 1 {
		return fmt.Errorf("TRANSLATE_MAX_QUERY_LENGTH must be >= 1")
	}
	hasAppID := strings.TrimSpace(c.TranslateAppID) != ""
	hasSecret := strings.TrimSpace(c.TranslateSecret) != ""
	if hasAppID != hasSecret {
		return fmt.Errorf("TRANSLATE_APP_ID and TRANSLATE_APP_SECRET must be set together")
	}
	return nil
}
