// Package state holds the scalar property store visible to UI bindings.
//
// The store is deliberately simple: named scalar values, one change
// notification per Set. There is no batching and no equality suppression —
// setting a property to its current value still notifies, because the cost
// model here is "sync every property on every change" and callers that need
// atomic multi-property updates batch before calling in.
//
// The store is owned by the session, not by the UI tree, which is what
// makes hot reload state-preserving: a freshly built tree binds to the same
// store and sees the same values.
package state
