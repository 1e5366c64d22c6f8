package signal

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lumenui/bridge/internal/goid"
)

// HostContext represents the host runtime's execution context. A
// goroutine must be attached before a handler runs on it. Attach is
// idempotent; detach is not required for long-lived workers.
type HostContext interface {
	Attach()
}

// hostContext tracks which goroutines have been attached. The first
// attach of a goroutine may do setup work; later attaches are a map hit.
type hostContext struct {
	attached map[uint64]struct{}
	log      *zap.Logger
	mu       sync.Mutex
}

// NewHostContext creates the default host execution context.
func NewHostContext(log *zap.Logger) HostContext {
	if log == nil {
		log = zap.NewNop()
	}
	return &hostContext{
		attached: make(map[uint64]struct{}),
		log:      log,
	}
}

func (c *hostContext) Attach() {
	id := goid.ID()

	c.mu.Lock()
	_, ok := c.attached[id]
	if !ok {
		c.attached[id] = struct{}{}
	}
	c.mu.Unlock()

	if !ok {
		c.log.Debug("attached goroutine to host context", zap.Uint64("goroutine", id))
	}
}
