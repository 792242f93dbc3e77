// Package registry holds definition lookup tables keyed by integer id.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Identified is anything registered by integer id.
type Identified interface {
	ID() int
}

// DefinitionError reports a malformed definition catalog. It is fatal at startup.
type DefinitionError struct {
	Kind   string
	ID     int
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s definition %d: %s", e.Kind, e.ID, e.Reason)
}

// Registry maps ids to definitions of one kind.
type Registry[T Identified] struct {
	mu   sync.RWMutex
	kind string
	defs map[int]T
}

// New creates an empty registry. kind names the definition family in errors.
func New[T Identified](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, defs: make(map[int]T)}
}

// Register adds definitions. A non-positive or duplicate id is a DefinitionError.
func (r *Registry[T]) Register(defs ...T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range defs {
		id := d.ID()
		if id <= 0 {
			return &DefinitionError{Kind: r.kind, ID: id, Reason: "id must be positive"}
		}
		if _, exists := r.defs[id]; exists {
			return &DefinitionError{Kind: r.kind, ID: id, Reason: "duplicate id"}
		}
		r.defs[id] = d
	}
	return nil
}

// Get looks up a definition. An unknown id is a DefinitionError.
func (r *Registry[T]) Get(id int) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.defs[id]
	if !ok {
		var zero T
		return zero, &DefinitionError{Kind: r.kind, ID: id, Reason: "unknown id"}
	}
	return d, nil
}

// MustGet is Get for wiring code that cannot proceed with a broken catalog.
func (r *Registry[T]) MustGet(id int) T {
	d, err := r.Get(id)
	if err != nil {
		panic(err)
	}
	return d
}

// Has reports whether id is registered.
func (r *Registry[T]) Has(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[id]
	return ok
}

// IDs returns every registered id in ascending order.
func (r *Registry[T]) IDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of definitions.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
