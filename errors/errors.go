package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the boundary layer the error occurred
type Phase string

const (
	PhaseInit     Phase = "init"     // session construction and Initialize
	PhaseParse    Phase = "parse"    // definition or JSON parsing
	PhaseLoad     Phase = "load"     // definition loading and tree building
	PhaseBind     Phase = "bind"     // binding evaluation
	PhaseDispatch Phase = "dispatch" // event dispatch into host handlers
	PhaseReload   Phase = "reload"   // hot-reload pipeline
	PhaseState    Phase = "state"    // property, projection and registry state
)

// Kind categorizes the error
type Kind string

const (
	KindNotInitialized Kind = "not_initialized"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindParse          Kind = "parse"
	KindRegistration   Kind = "registration"
	KindCallback       Kind = "callback"
	KindReloadFailed   Kind = "reload_failed"
	KindDoubleRelease  Kind = "double_release"
	KindClosed         Kind = "closed"
	KindWatch          Kind = "watch"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Entity string // what kind of thing: "event", "projection", "property", "handle", "path"
	Name   string // which one
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Entity != "" || e.Name != "" {
		b.WriteString(": ")
		if e.Entity != "" {
			b.WriteString(e.Entity)
			if e.Name != "" {
				b.WriteByte(' ')
			}
		}
		if e.Name != "" {
			b.WriteString(fmt.Sprintf("%q", e.Name))
		}
	}

	if e.Detail != "" {
		if e.Entity != "" || e.Name != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Entity sets the entity category ("event", "projection", ...)
func (b *Builder) Entity(entity string) *Builder {
	b.err.Entity = entity
	return b
}

// Name sets the offending entity name
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotInitialized creates an error for calls that precede Initialize
func NotInitialized(phase Phase, operation string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s called before initialize", operation),
	}
}

// NotFound creates a lookup failure error
func NotFound(phase Phase, entity, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Entity: entity,
		Name:   name,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Parse creates a parse error with a cause
func Parse(phase Phase, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindParse,
		Entity: "path",
		Name:   name,
		Cause:  cause,
	}
}

// Registration creates a handler registration error
func Registration(name string, detail string) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindRegistration,
		Entity: "event",
		Name:   name,
		Detail: detail,
	}
}

// Callback creates an error for a failure inside a host handler
func Callback(name string, detail string) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindCallback,
		Entity: "event",
		Name:   name,
		Detail: detail,
	}
}

// ReloadFailed creates a reload pipeline failure error
func ReloadFailed(path string, detail string) *Error {
	return &Error{
		Phase:  PhaseReload,
		Kind:   KindReloadFailed,
		Entity: "path",
		Name:   path,
		Detail: detail,
	}
}

// DoubleRelease creates an error for releasing an already-released handle
func DoubleRelease(handle uint64) *Error {
	return &Error{
		Phase:  PhaseState,
		Kind:   KindDoubleRelease,
		Entity: "handle",
		Detail: fmt.Sprintf("handle %d released twice", handle),
	}
}

// Closed creates an error for operations on a closed component
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: what + " is closed",
	}
}
