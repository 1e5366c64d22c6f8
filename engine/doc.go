// Package engine is the native UI runtime behind the bridge: a
// single-threaded event loop, an arena of UI-tree nodes with deferred
// destruction, and a declarative definition engine with live bindings.
//
// # Threading
//
// The goroutine that calls Loop.Run becomes the UI goroutine for the
// loop's lifetime; all tree mutation happens there. Invoke marshals a
// call onto the loop and blocks until it ran; when the caller already is
// the loop goroutine (or the loop has not started yet) the call executes
// inline. Node destruction is deferred: MarkForRelease schedules a
// subtree for release at the end of the current loop tick, so a tree can
// be torn down from code still running inside it.
//
// # Definitions
//
// UI trees are declared in HCL files:
//
//	window "main" {
//	  title = state.title
//
//	  column {
//	    text { value = state.status }
//	    button {
//	      label    = "Refresh"
//	      on_click = "refreshClicked"
//	    }
//	    list "items" {
//	      text_role = "name"
//	    }
//	  }
//	}
//
// Attributes are expressions. An attribute referencing state.* becomes a
// live binding re-evaluated on the UI goroutine whenever a property
// changes; every binding is refreshed on every change. A list block's
// label names the projection feeding it. Compiled definitions are cached
// per path until ClearComponentCache.
package engine
