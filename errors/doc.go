// Package errors provides structured error types for the bridge library.
//
// Errors are categorized by Phase (where in the boundary layer the error
// occurred) and Kind (error category). The Error type carries the name of
// the offending entity (event, projection, property, or file path) and a
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDispatch, errors.KindCallback).
//		Name("rowActivated").
//		Detail("handler panicked: %v", r).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseState, "projection", "inventory")
//	err := errors.NotInitialized(errors.PhaseLoad, "load definition")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
