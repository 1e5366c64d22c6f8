package resource

// Handle is an opaque reference to a retained value.
// Handle 0 is reserved and always invalid.
type Handle uint64

// EventType for registry lifecycle notifications.
type EventType uint8

const (
	EventRetained EventType = iota
	EventReleased
)

// Event represents a registry lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about registry lifecycle events.
// Tests use observers to verify the retain/release baseline.
type Observer interface {
	OnRegistryEvent(Event)
}

// Releaser is optionally implemented by retained values that need a
// callback when their pin is dropped (the cross-runtime "delete global
// reference" step).
type Releaser interface {
	Release()
}
