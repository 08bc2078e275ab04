package translation

import (
	"fmt"
	"sort"
	"strings"

	"horse.fit/phrasebook/internal/config"
)

const (
	// ProviderEnvVar selects the default translation transport.
	ProviderEnvVar = "TRANSLATION_PROVIDER"
	// DefaultTransportName is used when TRANSLATION_PROVIDER is unset.
	DefaultTransportName = "remote"
)

// Registry stores translation transports and resolves a default.
type Registry struct {
	transports       map[string]Transport
	defaultTransport string
}

func NewRegistry(defaultTransport string) *Registry {
	normalizedDefault := normalizeTransportName(defaultTransport)
	if normalizedDefault == "" {
		normalizedDefault = DefaultTransportName
	}

	return &Registry{
		transports:       make(map[string]Transport),
		defaultTransport: normalizedDefault,
	}
}

// NewRegistryFromConfig creates a transport registry from configuration.
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	defaultName := ""
	endpoint := ""
	localEndpoint := ""
	localModel := ""
	if cfg != nil {
		defaultName = cfg.TranslateProvider
		endpoint = cfg.TranslateEndpoint
		localEndpoint = cfg.LocalEndpoint
		localModel = cfg.LocalModel
	}

	registry := NewRegistry(defaultName)
	_ = registry.Register(NewRemoteTransport(endpoint))
	_ = registry.Register(NewLocalTransport(localEndpoint, localModel))

	if _, exists := registry.transports[registry.defaultTransport]; !exists {
		registry.defaultTransport = DefaultTransportName
	}

	return registry
}

// Register adds one transport.
func (r *Registry) Register(transport Transport) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if transport == nil {
		return fmt.Errorf("transport is nil")
	}
	name := normalizeTransportName(transport.Name())
	if name == "" {
		return fmt.Errorf("transport name is required")
	}
	r.transports[name] = transport
	return nil
}

// Transport resolves a transport by name. Empty names use the default.
func (r *Registry) Transport(name string) (Transport, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if len(r.transports) == 0 {
		return nil, fmt.Errorf("no translation transports are registered")
	}

	resolvedName := normalizeTransportName(name)
	if resolvedName == "" {
		resolvedName = r.defaultTransport
	}
	if transport, ok := r.transports[resolvedName]; ok {
		return transport, nil
	}

	return nil, fmt.Errorf("translation provider %q is not registered (available: %s)", resolvedName, strings.Join(r.TransportNames(), ", "))
}

func (r *Registry) DefaultTransport() string {
	if r == nil {
		return ""
	}
	return r.defaultTransport
}

func (r *Registry) TransportNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.transports))
	for name := range r.transports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeTransportName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
