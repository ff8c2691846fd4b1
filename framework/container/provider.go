package container

import "fmt"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the bindings of one subsystem.
//
// Register runs during setup and only binds. Boot runs after every provider
// has registered, while the registry is still single-threaded, and may
// resolve anything to validate or warm up what was bound.
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(reg *container.Registry) {
//	    container.BindShared(reg, AppConfig{Name: "demo"})
//	}
type ServiceProvider interface {
	// Register binds services into the registry.
	// Do NOT resolve other bindings here; use Boot() for that.
	Register(reg *Registry)

	// Boot is called after all providers are registered.
	Boot(res Resolver) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with a no-op Boot.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(reg *container.Registry) { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ Resolver) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders against one
// Registry, then freezes it.
type ProviderRegistry struct {
	reg        *Registry
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a provider registry bound to reg.
func NewProviderRegistry(reg *Registry) *ProviderRegistry {
	return &ProviderRegistry{
		reg:        reg,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register calls provider.Register. Registering the same provider twice is
// a no-op. Registering after Boot panics, since the registry is frozen.
func (r *ProviderRegistry) Register(provider ServiceProvider) {
	if r.registered[provider] {
		return
	}
	if r.booted {
		panic(fmt.Sprintf("container: provider %T registered after Boot", provider))
	}
	r.registered[provider] = true
	provider.Register(r.reg)
	r.providers = append(r.providers, provider)
}

// Boot calls Boot on every provider in registration order, stopping at the
// first error, then freezes the registry. Calling it again is a no-op.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	for _, provider := range r.providers {
		if err := provider.Boot(r.reg); err != nil {
			return fmt.Errorf("container: boot %T: %w", provider, err)
		}
	}
	r.booted = true
	r.reg.Freeze()
	return nil
}

// Booted returns true once Boot has succeeded.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered providers in order.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }

// Registry returns the registry providers bind into.
func (r *ProviderRegistry) Registry() *Registry { return r.reg }
