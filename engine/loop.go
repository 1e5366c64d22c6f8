package engine

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lumenui/bridge/internal/goid"
)

// Loop is the UI runtime's single-threaded cooperative event loop. Tasks
// posted from any goroutine run, one at a time, on the goroutine that
// called Run.
type Loop struct {
	wake     chan struct{}
	quitCh   chan struct{}
	queue    []func()
	tickEnd  []func()
	log      *zap.Logger
	exitCode atomic.Int32
	loopID   atomic.Uint64
	running  atomic.Bool
	quitOnce sync.Once
	mu       sync.Mutex
}

// NewLoop creates a stopped loop.
func NewLoop(log *zap.Logger) *Loop {
	if log == nil {
		log = Logger()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		quitCh: make(chan struct{}),
		log:    log,
	}
}

// Run blocks the calling goroutine, which becomes the UI goroutine until
// Quit. Returns the exit code. Run may be called once per loop.
func (l *Loop) Run() int {
	if !l.running.CompareAndSwap(false, true) {
		l.log.Error("loop already running")
		return -1
	}
	l.loopID.Store(goid.ID())
	l.log.Debug("event loop started")

	for {
		select {
		case <-l.quitCh:
			l.running.Store(false)
			code := int(l.exitCode.Load())
			l.log.Debug("event loop exited", zap.Int("code", code))
			return code
		case <-l.wake:
			l.drain()
		}
	}
}

// Post enqueues fn for execution on the loop; fire-and-forget.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Invoke runs fn on the UI goroutine and waits for completion. Calls from
// the UI goroutine itself execute inline, as do calls made before the
// loop starts — pre-loop setup runs on what becomes the UI goroutine.
// If the loop quits before fn runs, Invoke returns without running it.
func (l *Loop) Invoke(fn func()) {
	if !l.running.Load() || l.OnLoop() {
		fn()
		return
	}

	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-l.quitCh:
	}
}

// Quit requests the loop to exit with code. Fire-and-forget: the loop
// returns at its next opportunity. Safe to call repeatedly and from any
// goroutine.
func (l *Loop) Quit(code int) {
	l.quitOnce.Do(func() {
		l.exitCode.Store(int32(code))
		close(l.quitCh)
	})
}

// OnLoop reports whether the caller is the UI goroutine.
func (l *Loop) OnLoop() bool {
	return l.running.Load() && l.loopID.Load() == goid.ID()
}

// Running reports whether the loop is currently running.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// OnTickEnd registers a hook that runs after each executed task. The
// arena's deferred destruction drains here. Must be called before Run.
func (l *Loop) OnTickEnd(fn func()) {
	l.tickEnd = append(l.tickEnd, fn)
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		q := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(q) == 0 {
			return
		}
		for _, fn := range q {
			l.runTask(fn)
			for _, hook := range l.tickEnd {
				hook()
			}
		}
	}
}

// runTask fences task panics: a broken task must not kill the loop.
func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("task panicked on UI loop", zap.Any("panic", r))
		}
	}()
	fn()
}
