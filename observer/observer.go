// Package observer implements the copy-on-iterate registries spec.md
// §5 and §6.7 require for online-state, timer/heartbeat, battery and
// network notifications: Register/Deregister never block a concurrent
// Notify, and Notify never holds a lock across the callback (spec.md
// §5 "No lock is held across callbacks").
package observer

import "sync"

// Handle identifies a registered observer for later deregistration
// (spec.md §6.7 "a stable ulong handle used for deregistration").
type Handle uint64

// Registry is a generic copy-on-iterate observer list.
type Registry[T any] struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]func(T)
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[Handle]func(T))}
}

// Register adds fn and returns its Handle.
func (r *Registry[T]) Register(fn func(T)) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	h := r.next
	r.entries[h] = fn
	return h
}

// Deregister removes the observer identified by h, if present.
func (r *Registry[T]) Deregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, h)
}

// Notify calls every currently registered observer with v. It snapshots
// the registry under lock and releases the lock before invoking any
// callback, so a callback that registers or deregisters another
// observer, or that blocks, never deadlocks Notify or blocks a
// concurrent Register/Deregister.
func (r *Registry[T]) Notify(v T) {
	r.mu.Lock()
	snapshot := make([]func(T), 0, len(r.entries))
	for _, fn := range r.entries {
		snapshot = append(snapshot, fn)
	}
	r.mu.Unlock()

	for _, fn := range snapshot {
		fn(v)
	}
}
