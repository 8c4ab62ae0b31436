package normalize

import (
	"fmt"
	"sort"
	"sync"

	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

// Normalizer converts one raw worksheet table into canonical records.
type Normalizer func(Table) ([]*task.Record, error)

// Registry maintains the known normalizers by source name.
type Registry struct {
	mu          sync.RWMutex
	normalizers map[string]Normalizer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{normalizers: map[string]Normalizer{}}
}

// Register installs a normalizer. Returns an error if the name is taken.
func (r *Registry) Register(name string, fn Normalizer) error {
	if name == "" {
		return fmt.Errorf("normalize: name is required")
	}
	if fn == nil {
		return fmt.Errorf("normalize: normalizer is required for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.normalizers[name]; exists {
		return fmt.Errorf("normalize: %s already registered", name)
	}
	r.normalizers[name] = fn
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(name string, fn Normalizer) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Resolve looks up a normalizer by name.
func (r *Registry) Resolve(name string) (Normalizer, error) {
	r.mu.RLock()
	fn, ok := r.normalizers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("normalize: unknown normalizer %s", name)
	}
	return fn, nil
}

// Names returns the registered normalizer names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.normalizers))
	for name := range r.normalizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
