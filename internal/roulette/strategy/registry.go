package strategy

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"roulette-simulator/internal/roulette"
)

// Strategy identifiers accepted in configuration.
const (
	IDFixed      = "fixed"
	IDMartingale = "martingale"
	IDCocomo     = "cocomo"
)

// ErrUnknownStrategy is returned when no factory is registered for an ID.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Factory builds a fresh strategy with the given initial balance.
type Factory func(initialBalance decimal.Decimal, cfg *Config) roulette.Strategy

// Registry maps strategy identifiers to factories.
// It is safe for concurrent use.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// NewDefaultRegistry returns a registry holding the built-in policies.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(IDFixed, func(initial decimal.Decimal, cfg *Config) roulette.Strategy {
		return NewFixed(initial, cfg)
	})
	_ = r.Register(IDMartingale, func(initial decimal.Decimal, cfg *Config) roulette.Strategy {
		return NewMartingale(initial, cfg)
	})
	_ = r.Register(IDCocomo, func(initial decimal.Decimal, cfg *Config) roulette.Strategy {
		return NewCocomo(initial, cfg)
	})
	return r
}

// Register adds a factory, replacing any previous one with the same ID.
func (r *Registry) Register(id string, f Factory) error {
	if f == nil {
		return fmt.Errorf("cannot register nil factory")
	}
	if id == "" {
		return fmt.Errorf("strategy id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
	return nil
}

// Build creates a new strategy for id.
func (r *Registry) Build(id string, initialBalance decimal.Decimal, cfg *Config) (roulette.Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, id)
	}
	return f(initialBalance, cfg), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Unregister removes a factory. Returns true if it was present.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[id]; ok {
		delete(r.factories, id)
		return true
	}
	return false
}
