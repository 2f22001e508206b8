package provider

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/logger"
	"github.com/ctacke/DataNav/pkg/model"
)

// Registry manages the registration and retrieval of provider factories.
// Keys are case-insensitive; names that resolve in dbcapabilities are stored
// under their canonical id so aliases find the same factory.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a new factory registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registers a provider factory for a type name.
// The last registration for a given type wins.
func (r *Registry) Register(providerType string, factory Factory) error {
	key := canonicalKey(providerType)
	if key == "" {
		return fmt.Errorf("%w: provider type must not be empty", ErrInvalidArgument)
	}
	if factory == nil {
		return fmt.Errorf("%w: factory must not be nil", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[key] = factory
	return nil
}

// Get retrieves a registered factory by type name or alias.
// Returns ErrUnsupportedProvider if no factory is registered.
func (r *Registry) Get(providerType string) (Factory, error) {
	key := canonicalKey(providerType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerType)
	}

	return factory, nil
}

// IsRegistered checks if a factory exists for the given type name or alias.
func (r *Registry) IsRegistered(providerType string) bool {
	key := canonicalKey(providerType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[key]
	return exists
}

// ListRegistered returns the type keys of all registered factories.
func (r *Registry) ListRegistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for key := range r.factories {
		types = append(types, key)
	}

	return types
}

// Unregister removes a factory from the registry.
func (r *Registry) Unregister(providerType string) {
	key := canonicalKey(providerType)

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.factories, key)
}

// Clear removes all factories from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]Factory)
}

// New builds a disconnected provider for the given connection parameters by
// dispatching on info.ProviderType.
func (r *Registry) New(info model.ConnectionInfo, log *logger.Logger) (Provider, error) {
	factory, err := r.Get(info.ProviderType)
	if err != nil {
		return nil, err
	}

	return factory(info, log)
}

// canonicalKey lowercases a type name and resolves known aliases onto their
// canonical id, so "PostgreSQL" and "pg" share the factory registered under
// "postgres" while unknown names stay usable as their own keys.
func canonicalKey(providerType string) string {
	key := strings.ToLower(strings.TrimSpace(providerType))
	if id, ok := dbcapabilities.ParseID(key); ok {
		return string(id)
	}
	return key
}

// globalRegistry is the default factory registry.
var globalRegistry = NewRegistry()

// Register registers a factory in the global registry.
func Register(providerType string, factory Factory) error {
	return globalRegistry.Register(providerType, factory)
}

// Get retrieves a factory from the global registry.
func Get(providerType string) (Factory, error) {
	return globalRegistry.Get(providerType)
}

// IsRegistered checks if a factory is registered in the global registry.
func IsRegistered(providerType string) bool {
	return globalRegistry.IsRegistered(providerType)
}

// ListRegistered returns all registered type keys from the global registry.
func ListRegistered() []string {
	return globalRegistry.ListRegistered()
}

// GlobalRegistry returns the global factory registry.
func GlobalRegistry() *Registry {
	return globalRegistry
}
