package advisor

import "sort"

// Registry manages the configured completion backends
type Registry struct {
	backends map[string]Completer
}

// NewRegistry creates a new backend registry
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Completer),
	}
}

// Register adds a backend to the registry
func (r *Registry) Register(c Completer) {
	r.backends[c.Name()] = c
}

// Get retrieves a backend by name
func (r *Registry) Get(name string) (Completer, bool) {
	c, exists := r.backends[name]
	return c, exists
}

// List returns all registered backend names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
