package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry maps dashboard session IDs to their per-session state.
type Registry[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Create allocates a fresh ID and stores the value built for it.
func (r *Registry[T]) Create(build func(id string) T) (string, T) {
	id := uuid.NewString()
	v := build(id)

	r.mu.Lock()
	r.items[id] = v
	r.mu.Unlock()

	return id, v
}

func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	return v, ok
}

// Remove deletes id and returns the value it held.
func (r *Registry[T]) Remove(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	delete(r.items, id)
	return v, ok
}

// IDs returns the registered IDs in sorted order.
func (r *Registry[T]) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
