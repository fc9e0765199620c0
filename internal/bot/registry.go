package bot

import (
	"log/slog"
	"sync"
)

// Registry holds the modules that make up a bot. Module names are unique
// within a registry; a second registration under an already taken name is
// dropped so a stray double import cannot register duplicate commands.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
	names   map[string]struct{}
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]struct{}),
	}
}

// Register adds a module. Duplicate names are ignored with a warning.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.names[m.Name()]; taken {
		slog.Warn("ignoring duplicate module registration", "module", m.Name())
		return
	}
	r.names[m.Name()] = struct{}{}
	r.modules = append(r.modules, m)
}

// Modules returns the registered modules in registration order. The
// returned slice is a copy.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

// globalRegistry backs module self-registration via init().
var globalRegistry = NewRegistry()

// Register adds a module to the global registry. Called from module init()
// functions.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry replaces the global registry with an empty one.
// Testing only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
