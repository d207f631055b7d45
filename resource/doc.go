// Package resource provides per-category handle registries.
//
// The module never holds a host object. It holds a Handle, a small
// non-zero integer issued by the Registry of that object's category
// (buffers, textures, sounds, surfaces, ...). Handle 0 always means
// "no resource"; a registry created WithReserved(n) also keeps 1..n out of
// circulation.
//
//	buffers := resource.New[gpu.Object](resource.WithName("buffer"))
//
//	h := buffers.Allocate(obj)
//	obj, err := buffers.Resolve(h) // errors.KindInvalidHandle if not live
//	obj, err = buffers.Release(h)
//
// # Release Policy
//
// Each category picks what happens to released ids:
//
//	Reuse  - ids go on a LIFO free list and are issued again
//	Retire - ids are never issued again
//
// Under Reuse a module that keeps a stale handle may reach a newer object
// of the same category; under Retire it keeps getting InvalidHandle.
//
// # Observers
//
//	reg.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    if e.Type == resource.EventDropped { ... }
//	}))
//
// Registries are safe for concurrent use, though the runtime only touches
// them from the event loop.
package resource
