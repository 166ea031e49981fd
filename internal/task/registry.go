package task

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a task of one kind from its parameters.
type Factory func(params Params) (Task, error)

// Registry maps task kinds to factories so tasks can be rebuilt from
// their wire form (CLI arguments, scheduler payloads).
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for kind.
func (r *Registry) Register(kind string, f Factory) error {
	if !ValidKind(kind) {
		return fmt.Errorf("invalid task kind %q", kind)
	}
	if f == nil {
		return fmt.Errorf("factory for %s cannot be nil", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("task kind %s already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Build constructs a task of the given kind.
func (r *Registry) Build(kind string, params Params) (Task, error) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown task kind %s (known: %v)", kind, r.Kinds())
	}
	t, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", kind, err)
	}
	return t, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
