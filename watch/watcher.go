package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lumenui/bridge/errors"
)

// DefaultDebounce is the quiet period required after the last change
// before a reload runs.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc executes one reload pass for a watched path. It is called
// from the watcher's goroutine; implementations marshal onto the UI
// loop themselves.
type ReloadFunc func(path string) error

// Watcher monitors definition files and debounces change bursts into
// single reloads.
type Watcher struct {
	fs       *fsnotify.Watcher
	reload   ReloadFunc
	log      *zap.Logger
	entries  map[string]*watchEntry
	done     chan struct{}
	debounce time.Duration
	wg       sync.WaitGroup
	mu       sync.Mutex
	auto     bool
	closed   bool
}

// watchEntry tracks one path's reload state machine: pending is the
// PendingReload state, timer its scheduled transition back to idle.
type watchEntry struct {
	timer   *time.Timer
	pending bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithAutoReload sets the initial auto-reload flag.
func WithAutoReload(enabled bool) Option {
	return func(w *Watcher) { w.auto = enabled }
}

// New creates a watcher that calls reload after debounced changes.
func New(reload ReloadFunc, opts ...Option) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New(errors.PhaseInit, errors.KindWatch).
			Detail("create filesystem watcher").
			Cause(err).
			Build()
	}

	w := &Watcher{
		fs:       fs,
		reload:   reload,
		log:      zap.NewNop(),
		entries:  make(map[string]*watchEntry),
		done:     make(chan struct{}),
		debounce: DefaultDebounce,
		auto:     true,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Watch starts monitoring path. Watching an already-watched path is a
// no-op.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.Closed(errors.PhaseReload, "watcher")
	}
	if _, ok := w.entries[path]; ok {
		w.log.Debug("already watching", zap.String("path", path))
		return nil
	}
	if err := w.fs.Add(path); err != nil {
		w.log.Warn("cannot watch path", zap.String("path", path), zap.Error(err))
		return errors.New(errors.PhaseReload, errors.KindWatch).
			Entity("path").
			Name(path).
			Cause(err).
			Build()
	}
	w.entries[path] = &watchEntry{}
	w.log.Info("watching", zap.String("path", path))
	return nil
}

// Unwatch stops monitoring path and cancels any pending reload for it.
func (w *Watcher) Unwatch(path string) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.entries[path]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(w.entries, path)
	_ = w.fs.Remove(path)
	w.log.Info("unwatched", zap.String("path", path))
}

// Watched returns the watched paths.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.entries))
	for p := range w.entries {
		out = append(out, p)
	}
	return out
}

// SetAutoReload flips the auto-reload flag. While disabled, change
// events keep the watch registration alive but schedule nothing.
func (w *Watcher) SetAutoReload(enabled bool) {
	w.mu.Lock()
	w.auto = enabled
	w.mu.Unlock()
	w.log.Info("auto-reload", zap.Bool("enabled", enabled))
}

// AutoReloadEnabled returns the auto-reload flag.
func (w *Watcher) AutoReloadEnabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.auto
}

// Close stops all pending reloads and the underlying watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.Closed(errors.PhaseReload, "watcher")
	}
	w.closed = true
	for _, e := range w.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.onEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) onEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	e, tracked := w.entries[path]
	auto := w.auto
	if !tracked {
		w.mu.Unlock()
		return
	}

	// Rename-style saves drop the inode watch; re-add so the next save
	// is still observed.
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if err := w.fs.Add(path); err != nil {
			w.log.Warn("re-add after rename failed", zap.String("path", path), zap.Error(err))
		}
	}

	if !auto {
		w.mu.Unlock()
		w.log.Debug("change ignored, auto-reload disabled", zap.String("path", path))
		return
	}

	if e.pending {
		// Reschedule the pending reload; never a second one.
		e.timer.Reset(w.debounce)
		w.mu.Unlock()
		w.log.Debug("reload rescheduled", zap.String("path", path))
		return
	}

	e.pending = true
	e.timer = time.AfterFunc(w.debounce, func() { w.fire(path) })
	w.mu.Unlock()
	w.log.Debug("reload scheduled", zap.String("path", path))
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if e, ok := w.entries[path]; ok {
		e.pending = false
	}
	w.mu.Unlock()

	w.log.Info("reloading", zap.String("path", path))
	if err := w.reload(path); err != nil {
		w.log.Error("reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.log.Info("reload complete", zap.String("path", path))
}
