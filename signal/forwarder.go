package signal

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lumenui/bridge"
	"github.com/lumenui/bridge/errors"
	"github.com/lumenui/bridge/resource"
)

// Forwarder dispatches named UI events into retained host handlers.
type Forwarder struct {
	registry *resource.Registry
	handlers map[string]resource.Handle
	host     HostContext
	log      *zap.Logger
	mu       sync.RWMutex
}

// New creates a forwarder whose handler references live in registry.
func New(registry *resource.Registry, host HostContext, log *zap.Logger) *Forwarder {
	if log == nil {
		log = zap.NewNop()
	}
	if host == nil {
		host = NewHostContext(log)
	}
	return &Forwarder{
		registry: registry,
		handlers: make(map[string]resource.Handle),
		host:     host,
		log:      log,
	}
}

// Register retains h and installs it for name. An existing registration
// for name is released first and is never invoked again once Register
// returns. The old reference is released on every exit path, including
// retain failure.
func (f *Forwarder) Register(name string, h bridge.Handler) error {
	if h == nil {
		f.log.Error("cannot register nil handler", zap.String("event", name))
		return errors.InvalidInput(errors.PhaseDispatch, "nil handler for event "+name)
	}

	f.mu.Lock()
	old, replacing := f.handlers[name]
	newHandle := f.registry.Retain(h)
	if newHandle == 0 {
		delete(f.handlers, name)
		f.mu.Unlock()
		if replacing {
			f.releaseHandle(name, old)
		}
		return errors.Registration(name, "registry rejected retain")
	}
	f.handlers[name] = newHandle
	f.mu.Unlock()

	if replacing {
		f.log.Info("replacing handler", zap.String("event", name))
		f.releaseHandle(name, old)
	}
	f.log.Debug("handler registered", zap.String("event", name))
	return nil
}

// Unregister releases the registration for name. Unknown names are a
// no-op.
func (f *Forwarder) Unregister(name string) {
	f.mu.Lock()
	h, ok := f.handlers[name]
	delete(f.handlers, name)
	f.mu.Unlock()

	if !ok {
		f.log.Debug("no handler to unregister", zap.String("event", name))
		return
	}
	f.releaseHandle(name, h)
	f.log.Debug("handler unregistered", zap.String("event", name))
}

// Registered reports whether name currently has a handler.
func (f *Forwarder) Registered(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.handlers[name]
	return ok
}

// Emit resolves the handler for name and invokes it with args flattened
// to strings. Events with no listener are expected and harmless: logged,
// then dropped. The calling goroutine is attached to the host context
// first. Handler panics are caught here and never propagate.
func (f *Forwarder) Emit(name string, args []bridge.Scalar) {
	f.mu.RLock()
	handle, ok := f.handlers[name]
	f.mu.RUnlock()

	if !ok {
		f.log.Debug("no handler for event", zap.String("event", name))
		return
	}

	v, ok := f.registry.Get(handle)
	if !ok {
		// Raced with an unregister that won; drop like an unlistened event.
		f.log.Debug("handler gone before dispatch", zap.String("event", name))
		return
	}
	h, ok := v.(bridge.Handler)
	if !ok {
		f.log.Error("registered value is not a handler", zap.String("event", name))
		return
	}

	f.host.Attach()

	f.log.Debug("dispatching event",
		zap.String("event", name),
		zap.Int("args", len(args)))
	f.invoke(name, h, bridge.RenderAll(args))
}

// Close releases every registration.
func (f *Forwarder) Close() {
	f.mu.Lock()
	handlers := f.handlers
	f.handlers = make(map[string]resource.Handle)
	f.mu.Unlock()

	for name, h := range handlers {
		f.releaseHandle(name, h)
	}
}

// invoke is the exception fence between the UI loop and host code.
func (f *Forwarder) invoke(name string, h bridge.Handler, args []string) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("handler panicked",
				zap.String("event", name),
				zap.Any("panic", r))
		}
	}()
	h.Handle(args)
}

func (f *Forwarder) releaseHandle(name string, h resource.Handle) {
	if err := f.registry.Release(h); err != nil {
		f.log.Warn("release failed",
			zap.String("event", name),
			zap.Error(err))
	}
}
