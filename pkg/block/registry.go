package block

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores decorators by block name, providing discovery and
// duplication safeguards.
type Registry struct {
	mu         sync.RWMutex
	decorators map[string]Decorator
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		decorators: make(map[string]Decorator),
	}
}

// Register adds a decorator by its Name(). Duplicate names return an error.
func (r *Registry) Register(decorator Decorator) error {
	if decorator == nil {
		return fmt.Errorf("block: decorator is required")
	}
	name := decorator.Name()
	if name == "" {
		return fmt.Errorf("block: decorator name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decorators[name]; exists {
		return fmt.Errorf("block: decorator %q already registered", name)
	}

	r.decorators[name] = decorator
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(decorator Decorator) {
	if err := r.Register(decorator); err != nil {
		panic(err)
	}
}

// Get retrieves a decorator by block name.
func (r *Registry) Get(name string) (Decorator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decorator, ok := r.decorators[name]
	if !ok {
		return nil, fmt.Errorf("block: decorator %q not found", name)
	}
	return decorator, nil
}

// List returns a sorted list of registered block names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.decorators))
	for name := range r.decorators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a decorator is registered for name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.decorators[name]
	return ok
}
