// Package session assembles the full host/UI boundary into a single
// entry point.
//
// A Session is built with New, armed with Initialize, and then driven
// from two sides: the host side sets properties, registers handlers
// and pushes projection data, while the UI side loads definitions and
// emits events back. Every call before Initialize logs a warning and
// returns a safe default instead of failing.
//
// Teardown order matters. Close stops the watcher first so no reload
// fires mid-teardown, then the forwarder and the engine, and closes
// the handle registry last so every reference retained by the other
// components has already been released by the time it sweeps.
package session
