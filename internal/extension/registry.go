package extension

import (
	"context"
	"fmt"
)

// ID identifies one integration within a registry.
type ID string

// Finalizer is implemented by extensions that need their automatic policy
// resolved and their fields frozen at the finalization barrier.
type Finalizer interface {
	Finalize(ctx context.Context)
}

// Registry is the typed registry of integration extensions for one host
// project. It is populated during the configuration phase and finalized
// exactly once before any task condition is evaluated.
type Registry struct {
	entries   map[ID]any
	order     []ID
	finalized bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[ID]any)}
}

// Register adds an extension under its integration ID. Registering the same
// ID twice for one host project is a configuration error, as is registering
// after finalization.
func Register[T any](r *Registry, id ID, ext T) error {
	if r.finalized {
		return fmt.Errorf("extension registry already finalized, cannot register %q", id)
	}
	if _, ok := r.entries[id]; ok {
		return fmt.Errorf("extension already registered: %q", id)
	}
	r.entries[id] = ext
	r.order = append(r.order, id)
	return nil
}

// Lookup returns the strongly-typed extension registered under id. The
// second return is false when nothing is registered under id or the entry
// has a different type.
func Lookup[T any](r *Registry, id ID) (T, bool) {
	entry, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	ext, ok := entry.(T)
	return ext, ok
}

// Finalize runs every registered extension's Finalize hook in registration
// order and closes the registry. All ordinary configuration-phase writes
// must have happened before this call; calling it twice is an error.
func (r *Registry) Finalize(ctx context.Context) error {
	if r.finalized {
		return fmt.Errorf("extension registry finalized twice")
	}
	r.finalized = true
	for _, id := range r.order {
		if fin, ok := r.entries[id].(Finalizer); ok {
			fin.Finalize(ctx)
		}
	}
	return nil
}

// Finalized reports whether the barrier has passed.
func (r *Registry) Finalized() bool {
	return r.finalized
}
