// Package bridge connects a managed, garbage-collected host runtime to a
// native, single-threaded declarative UI runtime.
//
// The hard part of embedding a scripting runtime behind a retained-mode UI
// is the boundary: object lifetimes span two independent memory managers,
// UI events must reach host callbacks without leaking or crashing either
// side, host collections must be projected into UI-visible lists, and the
// declarative tree must reload live without losing application state. This
// module is that boundary layer and nothing else.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	bridge/          Root package with the Scalar value type and Handler interface
//	├── session/     Top-level Session owning all boundary state, host entry points
//	├── engine/      UI runtime: event loop, node arena, HCL definition engine
//	├── signal/      Forwarder dispatching UI events into host handlers
//	├── model/       Role-addressable list projections of host collections
//	├── state/       Scalar property store with change notification
//	├── watch/       Debounced file watching and the hot-reload pipeline
//	├── resource/    Reference registry for retained cross-runtime handles
//	└── errors/      Structured error types for debugging
//
// # Quick Start
//
// Create a session, load a definition, and run the loop:
//
//	s := session.New()
//	if err := s.Initialize(os.Args); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	s.SetProperty("title", "Inventory")
//	s.CreateProjection("items")
//	s.RegisterHandler("refreshClicked", bridge.HandlerFunc(func(args []string) {
//	    s.SetProjectionData("items", fetchItems())
//	}))
//
//	if !s.LoadDefinition("ui/main.ui.hcl") {
//	    log.Fatal("definition failed to load")
//	}
//	os.Exit(s.RunLoop())
//
// # Thread Safety
//
// The UI runtime owns a single-threaded event loop; the goroutine that calls
// RunLoop becomes the UI goroutine for the session's lifetime. Session entry
// points are safe to call from any goroutine: UI-affecting calls are
// marshaled onto the loop (inline when already there, synchronously
// otherwise). Emit may arrive from any goroutine the UI runtime uses and is
// fenced so a panicking handler never unwinds into the event loop.
//
// # Lifetimes
//
// Host callbacks handed across the boundary are retained in the resource
// registry and released exactly once: when replaced, when unregistered, or
// when the session closes. The registry's Close is the backstop that returns
// every outstanding handle, so a session teardown never leaks references
// into the host memory manager.
package bridge
