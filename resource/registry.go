package resource

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lumenui/bridge/errors"
)

// Registry pins values referenced from the UI runtime so the host memory
// manager cannot collect them, and releases the pins deterministically.
// All methods are safe for concurrent use.
type Registry struct {
	values    map[Handle]any
	observers []Observer
	log       *zap.Logger
	next      Handle
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	strict    bool
	closed    bool
}

// New creates a registry that tolerates double release (logged no-op).
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		values: make(map[Handle]any),
		log:    log,
	}
}

// NewStrict creates a registry that panics on double release. Intended for
// debug builds and tests, where releasing a handle twice is a programming
// error that should fail fast.
func NewStrict(log *zap.Logger) *Registry {
	r := New(log)
	r.strict = true
	return r
}

// Retain pins value and returns its handle. Returns 0 if the registry is
// closed.
func (r *Registry) Retain(value any) Handle {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn("retain on closed registry")
		return 0
	}
	r.next++
	h := r.next
	r.values[h] = value
	r.mu.Unlock()

	r.notify(Event{Type: EventRetained, Handle: h, Value: value})
	return h
}

// Get resolves a handle from any goroutine.
func (r *Registry) Get(h Handle) (any, bool) {
	if h == 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[h]
	return v, ok
}

// Release drops the pin for h. Releasing a handle that was already
// released (or never issued) returns a double_release error; strict
// registries panic instead. The Releaser callback, if any, runs without
// the registry lock held.
func (r *Registry) Release(h Handle) error {
	if h == 0 {
		return errors.InvalidInput(errors.PhaseState, "release of zero handle")
	}

	r.mu.Lock()
	v, ok := r.values[h]
	if !ok {
		r.mu.Unlock()
		err := errors.DoubleRelease(uint64(h))
		if r.strict {
			panic(err)
		}
		r.log.Warn("double release", zap.Uint64("handle", uint64(h)))
		return err
	}
	delete(r.values, h)
	r.mu.Unlock()

	if rel, ok := v.(Releaser); ok {
		rel.Release()
	}

	r.notify(Event{Type: EventReleased, Handle: h, Value: v})
	return nil
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Close releases every outstanding handle and rejects further retains.
// This is the session destructor's leak backstop.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.Closed(errors.PhaseState, "registry")
	}
	r.closed = true
	remaining := make([]Handle, 0, len(r.values))
	for h := range r.values {
		remaining = append(remaining, h)
	}
	r.mu.Unlock()

	if len(remaining) > 0 {
		r.log.Info("releasing outstanding handles at close", zap.Int("count", len(remaining)))
	}

	for _, h := range remaining {
		r.mu.Lock()
		v, ok := r.values[h]
		delete(r.values, h)
		r.mu.Unlock()
		if !ok {
			continue
		}
		if rel, ok := v.(Releaser); ok {
			rel.Release()
		}
		r.notify(Event{Type: EventReleased, Handle: h, Value: v})
	}
	return nil
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnRegistryEvent(e)
	}
}
