package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Environment:    "local",
		LogLevel:       "info",
		DatabaseURL:    "postgres://localhost/phrasebook",
		DBMinConns:     1,
		DBMaxConns:     8,
		MaxQueryLength: DefaultMaxQueryLength,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.DatabaseURL = "   "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for blank DATABASE_URL")
	}
}

func TestValidateConnectionBounds(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.DBMinConns = 10
	cfg.DBMaxConns = 4
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when min conns exceed max conns")
	}

	cfg = validConfig()
	cfg.DBMaxConns = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero max conns")
	}
}

func TestValidateCredentialsPairing(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.TranslateAppID = "app"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for app id without secret")
	} else if !strings.Contains(err.Error(), "TRANSLATE_APP_SECRET") {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.TranslateSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("paired credentials must validate: %v", err)
	}

	cfg = validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("absent credentials must validate: %v", err)
	}
}

func TestValidateQueryLength(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.MaxQueryLength = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for non-positive query length")
	}
}
