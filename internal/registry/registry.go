// Package registry maps kernel names to the Go handlers that implement them.
// The local device manager resolves a node's function name against a registry
// at execution time.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vk/tensorgridgo/internal/execctx"
)

// Kernel is the Go implementation of one compiled function. It reads and
// writes tensors through the execution context's bindings.
type Kernel func(ctx *execctx.Context) error

// Registry is a concurrency-safe name-to-kernel table.
type Registry struct {
	mu      sync.RWMutex
	kernels map[string]Kernel
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{kernels: make(map[string]Kernel)}
}

// Register adds a kernel under the given name. Registering a name twice is a
// wiring error.
func (r *Registry) Register(name string, k Kernel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kernels[name]; exists {
		return fmt.Errorf("kernel %q already registered", name)
	}
	r.kernels[name] = k
	return nil
}

// Lookup returns the kernel registered under name.
func (r *Registry) Lookup(name string) (Kernel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kernels[name]
	return k, ok
}

// Names returns the sorted names of all registered kernels.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
