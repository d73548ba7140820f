// Package verify implements the verification orchestration use case: it
// admits requests, coalesces identical claims, fans out to evidence
// providers under health tracking and an overall deadline, and aggregates
// provider judgments into one calibrated verdict.
package verify

import (
	"fmt"
	"sync"

	"claimcheck/internal/infra/provider"
)

// RegisteredProvider pairs a provider implementation with its configured
// credibility weight.
type RegisteredProvider struct {
	Provider provider.Provider

	// Weight is the static credibility weight applied to this provider's
	// votes during aggregation. Typical range 0.1-1.0.
	Weight float64
}

// Registry maps provider names to implementations and credibility weights.
// Registration order is preserved: fan-out and result breakdowns follow it
// so responses are deterministic.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]RegisteredProvider
	order     []string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]RegisteredProvider)}
}

// Register adds a provider under its name with the given weight.
// Registering a duplicate name is a wiring bug and returns an error.
func (r *Registry) Register(p provider.Provider, weight float64) error {
	if p == nil {
		return fmt.Errorf("provider is nil")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("provider name is empty")
	}
	if weight <= 0 {
		return fmt.Errorf("provider %s: weight must be positive, got %g", name, weight)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.providers[name] = RegisteredProvider{Provider: p, Weight: weight}
	r.order = append(r.order, name)
	return nil
}

// All returns the registered providers in registration order.
func (r *Registry) All() []RegisteredProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RegisteredProvider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

// Weight returns the credibility weight for the named provider, or zero if
// it is not registered.
func (r *Registry) Weight(name string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name].Weight
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
