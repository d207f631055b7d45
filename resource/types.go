package resource

// Handle is an opaque reference to a host object, as seen by the module.
// Handle 0 is reserved and always means "no resource".
type Handle uint32

// Policy decides what happens to a handle's id once it is released.
type Policy uint8

const (
	// Reuse pushes released ids on a free list; the most recently released
	// id is issued next.
	Reuse Policy = iota
	// Retire never issues a released id again. Stale ids held by the module
	// keep failing instead of silently aliasing a newer object.
	Retire
)

func (p Policy) String() string {
	switch p {
	case Reuse:
		return "reuse"
	case Retire:
		return "retire"
	default:
		return "unknown"
	}
}

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event represents a resource lifecycle event.
type Event struct {
	Value    any
	Category string
	Handle   Handle
	Type     EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnResourceEvent calls f(e).
func (f ObserverFunc) OnResourceEvent(e Event) {
	f(e)
}

// Dropper is optionally implemented by resource values that need cleanup
// when their handle is released or the registry is cleared.
type Dropper interface {
	Drop()
}
