// Package signal forwards UI-originated events into host-runtime handlers.
//
// The forwarder is name-indexed dispatch with two hard rules. First, at
// most one live registration exists per event name: registering over an
// existing name releases the old reference before the new one is visible,
// so a replaced handler is never invoked again and never leaks. Second,
// the boundary is an exception fence: a panic inside a host handler is
// caught here, logged with the event name, and never unwinds into the UI
// event loop.
//
// Emit may arrive on the UI goroutine or on auxiliary goroutines the UI
// runtime spawns for I/O. The calling goroutine is attached to the host
// execution context on demand; attaching an already-attached goroutine is
// cheap and safe. The registration lock is never held across the handler
// call.
package signal
