// Package resource provides the reference registry for cross-runtime
// object lifetimes.
//
// References handed across the boundary (host callbacks, context objects)
// must survive past the end of the native call that received them: the host
// memory manager is free to collect anything it no longer sees. Retain
// pins such a value and returns an opaque handle usable from any
// goroutine; Release drops the pin exactly once.
//
// # Handle Lifecycle
//
//	reg := resource.New()
//	h := reg.Retain(handler)      // pin, get handle
//	v, ok := reg.Get(h)           // resolve from any goroutine
//	reg.Release(h)                // unpin; Releaser values get a callback
//
// Handles are never reused within a registry, so a second Release of the
// same handle is always detected. In strict registries (debug builds) it
// panics fast; otherwise it logs and no-ops.
//
// Every Retain must be balanced by a Release or the host side leaks.
// Close is the backstop: it releases every outstanding handle, which is
// how a session guarantees nothing escapes its teardown.
package resource
