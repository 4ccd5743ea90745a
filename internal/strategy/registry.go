package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// Registry manages a named collection of hedging policies that can be looked
// up at runtime. It is safe for concurrent use.
type Registry struct {
	hedgers map[string]Hedger
	mu      sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		hedgers: make(map[string]Hedger),
	}
}

// NewDefaultRegistry returns a Registry with the built-in policies
// registered under their names.
func NewDefaultRegistry(cfg Config) *Registry {
	r := NewRegistry()
	r.Register(NameDelta, NewDeltaHedger(cfg))
	r.Register(NameNone, Unhedged{})
	return r
}

// Register adds a policy under the given name, replacing any existing one.
func (r *Registry) Register(name string, h Hedger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hedgers[strings.ToLower(name)] = h
}

// Get retrieves a policy by name (case-insensitive). Unknown names wrap
// domain.ErrUnknownPolicy.
func (r *Registry) Get(name string) (Hedger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.hedgers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("hedging policy %q: %w", name, domain.ErrUnknownPolicy)
	}
	return h, nil
}

// List returns the names of all registered policies in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.hedgers))
	for n := range r.hedgers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
