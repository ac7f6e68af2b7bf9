package symbol

import (
	"fmt"
	"strings"
	"sync"

	"github.com/eugenenazirov/yzconfig/internal/settings"
)

const separator = "."

// Loader produces a container on first use.
type Loader func() (any, error)

type entry struct {
	mu     sync.Mutex
	load   Loader
	value  any
	loaded bool
}

func (e *entry) get() (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return e.value, nil
	}
	v, err := e.load()
	if err != nil {
		return nil, err
	}
	e.value = v
	e.loaded = true
	return v, nil
}

// Registry maps dotted container paths to containers, standing in for an
// importable module namespace.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register makes v available under path. Registering the same path again
// replaces the previous container.
func (r *Registry) Register(path string, v any) error {
	return r.register(path, &entry{value: v, loaded: true})
}

// RegisterLoader makes a lazily loaded container available under path. The
// loader runs on first resolution and again after each failure, but never
// after it has succeeded once.
func (r *Registry) RegisterLoader(path string, load Loader) error {
	if load == nil {
		return fmt.Errorf("register %q: nil loader", path)
	}
	return r.register(path, &entry{load: load})
}

func (r *Registry) register(path string, e *entry) error {
	if err := validatePath(path); err != nil {
		return &ResolutionError{Path: path, Err: err}
	}

	r.mu.Lock()
	r.entries[path] = e
	r.mu.Unlock()
	return nil
}

// Has reports whether a container is registered under path.
func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[path]
	return ok
}

// Resolve returns the object named by a dotted path. "pkg.mod.attr" yields
// member attr of container "pkg.mod"; a path without a separator yields the
// container itself. When the member is missing but the whole path is a
// registered container, that container is returned, so "pkg.mod" resolves
// whether or not "pkg" is registered.
func (r *Registry) Resolve(dotted string) (any, error) {
	if err := validatePath(dotted); err != nil {
		return nil, &ResolutionError{Path: dotted, Err: err}
	}

	idx := strings.LastIndex(dotted, separator)
	if idx < 0 {
		v, err := r.load(dotted)
		if err != nil {
			return nil, &ResolutionError{Path: dotted, Err: err}
		}
		return v, nil
	}

	containerPath, member := dotted[:idx], dotted[idx+1:]

	container, err := r.load(containerPath)
	if err == nil {
		if v, ok := lookupMember(container, member); ok {
			return v, nil
		}
	}

	if r.Has(dotted) {
		v, subErr := r.load(dotted)
		if subErr != nil {
			return nil, &ResolutionError{Path: dotted, Err: subErr}
		}
		return v, nil
	}
	if err != nil {
		return nil, &ResolutionError{Path: dotted, Err: err}
	}
	return nil, &ResolutionError{Path: dotted, Err: fmt.Errorf("%w: %q on %q", ErrMemberNotFound, member, containerPath)}
}

func (r *Registry) load(path string) (any, error) {
	r.mu.RLock()
	e, ok := r.entries[path]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}

	v, err := e.get()
	if err != nil {
		return nil, fmt.Errorf("%w: load %q: %w", ErrNotFound, path, err)
	}
	return v, nil
}

func lookupMember(container any, member string) (any, bool) {
	src, err := settings.From(container)
	if err != nil {
		return nil, false
	}
	return src.Lookup(member)
}

func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrMalformedPath
	}
	for _, part := range strings.Split(path, separator) {
		if part == "" || strings.TrimSpace(part) != part {
			return ErrMalformedPath
		}
	}
	return nil
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the package-level
// functions.
func Default() *Registry {
	return defaultRegistry
}

// Register adds v to the default registry.
func Register(path string, v any) error {
	return defaultRegistry.Register(path, v)
}

// RegisterLoader adds a lazily loaded container to the default registry.
func RegisterLoader(path string, load Loader) error {
	return defaultRegistry.RegisterLoader(path, load)
}

// Resolve looks dotted up in the default registry.
func Resolve(dotted string) (any, error) {
	return defaultRegistry.Resolve(dotted)
}
