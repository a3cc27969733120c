// Package registry maintains the table of analysis modules available
// to an audit. Built-in checks register themselves at startup via the
// package-level Register call (an explicit registration list, not
// runtime reflection); user-supplied tengo scripts are discovered from
// a directory at construction time.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds registered analysis modules keyed by name.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{modules: make(map[string]Descriptor)}
}

// Register adds a module with tier defaults. Duplicate names are
// rejected so two checks can never shadow each other silently.
func (r *Registry) Register(m Module) error {
	return r.RegisterWithTimeout(m, 0)
}

// RegisterWithTimeout adds a module with an explicit timeout override.
// A zero timeout means the tier default.
func (r *Registry) RegisterWithTimeout(m Module, timeout time.Duration) error {
	if m == nil {
		return fmt.Errorf("register: nil module")
	}
	name := m.Name()
	if name == "" {
		return fmt.Errorf("register: module with empty name")
	}
	tier := m.Tier().Normalize()
	if timeout <= 0 {
		timeout = tier.DefaultTimeout()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("register: duplicate module %q", name)
	}
	r.modules[name] = Descriptor{
		Name:    name,
		Tier:    tier,
		Timeout: timeout,
		Module:  m,
	}
	return nil
}

// Replace installs a module, overwriting any existing registration of
// the same name. Used to reconfigure a built-in (e.g. a custom browser
// binary) after seeding from the default registry.
func (r *Registry) Replace(m Module) error {
	if m == nil {
		return fmt.Errorf("replace: nil module")
	}
	name := m.Name()
	if name == "" {
		return fmt.Errorf("replace: module with empty name")
	}
	tier := m.Tier().Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = Descriptor{
		Name:    name,
		Tier:    tier,
		Timeout: tier.DefaultTimeout(),
		Module:  m,
	}
	return nil
}

// Get returns the descriptor for a module by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.modules[name]
	return d, ok
}

// List returns all descriptors sorted by name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.modules))
	for _, d := range r.modules {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByTier partitions all descriptors by tier, each partition sorted by
// name so execution order is deterministic.
func (r *Registry) ByTier() map[Tier][]Descriptor {
	out := map[Tier][]Descriptor{
		TierFast:   nil,
		TierMedium: nil,
		TierDeep:   nil,
	}
	for _, d := range r.List() {
		out[d.Tier] = append(out[d.Tier], d)
	}
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// Default registry for built-in checks. The checks/all package imports
// every built-in check package, whose Register calls land here.
var defaultRegistry = New()

// Register adds a built-in module to the default registry, panicking
// on duplicates. Built-in registration happens once at startup from a
// fixed list, so a duplicate is a programming error, not input.
func Register(m Module) {
	if err := defaultRegistry.Register(m); err != nil {
		panic(err)
	}
}

// Builtin returns a new registry seeded with every registered built-in
// module. The caller owns the copy; later additions (script discovery)
// do not leak back into the default registry.
func Builtin(logger *slog.Logger) *Registry {
	r := New()
	for _, d := range defaultRegistry.List() {
		if err := r.RegisterWithTimeout(d.Module, d.Timeout); err != nil && logger != nil {
			logger.Warn("builtin registration skipped", slog.String("module", d.Name), slog.String("error", err.Error()))
		}
	}
	return r
}
