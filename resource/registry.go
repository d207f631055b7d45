package resource

import (
	"slices"
	"sync"

	"github.com/wippyai/wasm-playhost/errors"
)

// Option configures a Registry.
type Option func(*options)

type options struct {
	name     string
	policy   Policy
	reserved uint32
}

// WithName sets the category name used in errors and events.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithPolicy sets the release policy. The default is Reuse.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithReserved keeps ids 1..n out of circulation; the first issued
// handle is n+1.
func WithReserved(n uint32) Option {
	return func(o *options) { o.reserved = n }
}

// Registry maps handles of one resource category to host objects.
// Each category gets its own registry: the same integer in two registries
// refers to unrelated objects.
type Registry[T any] struct {
	entries   []entry[T]
	freeList  []Handle
	observers []Observer
	name      string
	live      int
	reserved  uint32
	policy    Policy
	mu        sync.RWMutex
	closed    bool
}

type entry[T any] struct {
	value T
	valid bool
}

// New creates an empty registry.
func New[T any](opts ...Option) *Registry[T] {
	o := options{name: "resource"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[T]{
		entries:  make([]entry[T], 0, 16),
		name:     o.name,
		policy:   o.policy,
		reserved: o.reserved,
	}
}

// Name returns the category name.
func (r *Registry[T]) Name() string { return r.name }

// Policy returns the release policy.
func (r *Registry[T]) Policy() Policy { return r.policy }

func (r *Registry[T]) index(h Handle) (int, bool) {
	if uint32(h) <= r.reserved {
		return 0, false
	}
	idx := int(uint32(h) - r.reserved - 1)
	if idx >= len(r.entries) {
		return 0, false
	}
	return idx, true
}

func (r *Registry[T]) allocateLocked(v T) Handle {
	e := entry[T]{value: v, valid: true}
	r.live++

	if len(r.freeList) > 0 {
		h := r.freeList[len(r.freeList)-1]
		r.freeList = r.freeList[:len(r.freeList)-1]
		idx, _ := r.index(h)
		r.entries[idx] = e
		return h
	}

	r.entries = append(r.entries, e)
	return Handle(r.reserved + uint32(len(r.entries)))
}

// Allocate stores v and returns a fresh non-zero handle. A closed registry
// returns 0.
func (r *Registry[T]) Allocate(v T) Handle {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0
	}
	h := r.allocateLocked(v)
	r.mu.Unlock()

	r.notify(Event{Type: EventCreated, Category: r.name, Handle: h, Value: v})
	return h
}

// AllocateMany creates n objects with create and returns their handles in
// ascending order. Under Reuse the lowest free handles are taken first,
// then fresh ones. A closed registry returns nil.
func (r *Registry[T]) AllocateMany(n int, create func() T) []Handle {
	if n <= 0 {
		return []Handle{}
	}
	values := make([]T, n)
	for i := range values {
		values[i] = create()
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	out := make([]Handle, 0, n)
	if k := min(n, len(r.freeList)); k > 0 {
		lowest := slices.Sorted(slices.Values(r.freeList))[:k]
		out = append(out, lowest...)
		// the rest of the free list keeps its LIFO order
		r.freeList = slices.DeleteFunc(r.freeList, func(h Handle) bool {
			_, found := slices.BinarySearch(lowest, h)
			return found
		})
		for i, h := range out {
			idx, _ := r.index(h)
			r.entries[idx] = entry[T]{value: values[i], valid: true}
		}
		r.live += k
	}
	for i := len(out); i < n; i++ {
		out = append(out, r.allocateLocked(values[i]))
	}
	r.mu.Unlock()

	for i, h := range out {
		r.notify(Event{Type: EventCreated, Category: r.name, Handle: h, Value: values[i]})
	}
	return out
}

// Resolve returns the object behind h. Zero, unknown and released handles
// fail with an InvalidHandle error.
func (r *Registry[T]) Resolve(h Handle) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	idx, ok := r.index(h)
	if !ok || !r.entries[idx].valid {
		return zero, errors.InvalidHandle(r.name, uint32(h))
	}
	return r.entries[idx].value, nil
}

// Lookup is Resolve for optional arguments: handle 0 yields the zero value
// and no error, meaning "no resource" (unbinding).
func (r *Registry[T]) Lookup(h Handle) (T, error) {
	if h == 0 {
		var zero T
		return zero, nil
	}
	return r.Resolve(h)
}

// Release removes h and returns the object it referred to. Releasing an
// id that is not live is an InvalidHandle error; nothing is changed.
// Objects implementing Dropper are dropped.
func (r *Registry[T]) Release(h Handle) (T, error) {
	r.mu.Lock()
	var zero T
	idx, ok := r.index(h)
	if !ok || !r.entries[idx].valid {
		r.mu.Unlock()
		return zero, errors.InvalidHandle(r.name, uint32(h))
	}

	v := r.entries[idx].value
	r.entries[idx] = entry[T]{}
	r.live--
	if r.policy == Reuse {
		r.freeList = append(r.freeList, h)
	}
	r.mu.Unlock()

	if d, ok := any(v).(Dropper); ok {
		d.Drop()
	}
	r.notify(Event{Type: EventDropped, Category: r.name, Handle: h, Value: v})
	return v, nil
}

// Len returns the number of live handles.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live
}

// Each iterates over live handles in ascending order until fn returns false.
func (r *Registry[T]) Each(fn func(Handle, T) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, e := range r.entries {
		if e.valid {
			if !fn(Handle(r.reserved+uint32(i)+1), e.value) {
				break
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry[T]) Subscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Clear releases every live handle.
func (r *Registry[T]) Clear() {
	var handles []Handle
	r.Each(func(h Handle, _ T) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		_, _ = r.Release(h)
	}
}

// Close releases every live handle and stops accepting allocations.
func (r *Registry[T]) Close() error {
	r.Clear()
	r.mu.Lock()
	r.closed = true
	r.entries = nil
	r.freeList = nil
	r.mu.Unlock()
	return nil
}

func (r *Registry[T]) notify(e Event) {
	r.mu.RLock()
	obs := r.observers
	r.mu.RUnlock()
	for _, o := range obs {
		o.OnResourceEvent(e)
	}
}
