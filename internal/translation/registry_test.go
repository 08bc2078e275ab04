package translation

import (
	"strings"
	"testing"

	"horse.fit/phrasebook/internal/config"
)

func TestRegistryResolvesDefaultAndNamed(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("local")
	if err := registry.Register(&stubTransport{name: "remote"}); err != nil {
		t.Fatalf("register remote: %v", err)
	}
	if err := registry.Register(&stubTransport{name: "local"}); err != nil {
		t.Fatalf("register local: %v", err)
	}

	got, err := registry.Transport("")
	if err != nil {
		t.Fatalf("default resolution failed: %v", err)
	}
	if got.Name() != "local" {
		t.Fatalf("expected default transport local, got %s", got.Name())
	}

	got, err = registry.Transport(" Remote ")
	if err != nil {
		t.Fatalf("named resolution failed: %v", err)
	}
	if got.Name() != "remote" {
		t.Fatalf("expected remote transport, got %s", got.Name())
	}
}

func TestRegistryUnknownTransport(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	_ = registry.Register(&stubTransport{name: "remote"})

	if _, err := registry.Transport("google"); err == nil {
		t.Fatalf("expected error for unregistered transport")
	} else if !strings.Contains(err.Error(), "remote") {
		t.Fatalf("expected available transports in error, got %v", err)
	}
}

func TestRegistryRejectsInvalidRegistrations(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected error for nil transport")
	}
	if err := registry.Register(&stubTransport{name: "  "}); err == nil {
		t.Fatalf("expected error for unnamed transport")
	}
}

func TestNewRegistryFromConfigFallsBackToRemote(t *testing.T) {
	t.Parallel()

	registry := NewRegistryFromConfig(&config.Config{TranslateProvider: "google"})
	if registry.DefaultTransport() != DefaultTransportName {
		t.Fatalf("unregistered default must fall back to %q, got %q",
			DefaultTransportName, registry.DefaultTransport())
	}

	names := registry.TransportNames()
	if len(names) != 2 || names[0] != "local" || names[1] != "remote" {
		t.Fatalf("unexpected transports: %v", names)
	}
}
