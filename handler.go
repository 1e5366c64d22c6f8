package bridge

// Handler is the host-side callback surface for UI events. Arguments arrive
// flattened to strings in emission order.
//
// Handle runs with the calling goroutine attached to the host execution
// context. A panic inside Handle is caught at the forwarder boundary and
// logged; it never unwinds into the UI event loop.
type Handler interface {
	Handle(args []string)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(args []string)

// Handle calls f.
func (f HandlerFunc) Handle(args []string) { f(args) }
