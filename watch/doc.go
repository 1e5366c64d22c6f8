// Package watch drives hot reload: it monitors the active UI definition
// files and collapses bursts of writes into single reload passes.
//
// Each watched path is a tiny state machine, Idle or PendingReload. A
// change notification while idle schedules a reload one debounce interval
// out; further notifications while pending push the deadline back rather
// than queueing a second reload, so an editor's save storm produces one
// reload of the final file state. When auto-reload is disabled, events
// are still consumed — keeping the underlying watch registration alive —
// but no reload is scheduled.
//
// The reload itself is the session's job; the watcher only calls the
// ReloadFunc it was given, from its own goroutine, and logs the outcome.
package watch
