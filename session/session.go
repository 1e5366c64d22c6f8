package session

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lumenui/bridge"
	"github.com/lumenui/bridge/engine"
	"github.com/lumenui/bridge/errors"
	"github.com/lumenui/bridge/model"
	"github.com/lumenui/bridge/resource"
	"github.com/lumenui/bridge/signal"
	"github.com/lumenui/bridge/state"
	"github.com/lumenui/bridge/watch"
)

// Session is the host-facing entry point. It owns the registry, the
// property store, the forwarder, the engine and the watcher, and wires
// them together at Initialize.
type Session struct {
	log         *zap.Logger
	registry    *resource.Registry
	store       *state.Store
	forwarder   *signal.Forwarder
	engine      *engine.Engine
	watcher     *watch.Watcher
	projections map[string]*model.Projection
	args        []string
	configDir   string
	debounce    time.Duration
	auto        bool
	strict      bool
	logSet      bool
	initialized atomic.Bool
	closed      atomic.Bool
	mu          sync.Mutex
}

// Option configures a Session before Initialize.
type Option func(*Session)

// WithLogger sets the session logger. It takes precedence over the
// log_level config key.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
			s.logSet = true
		}
	}
}

// WithConfigDir points the session at a directory holding bridge.yaml.
func WithConfigDir(dir string) Option {
	return func(s *Session) { s.configDir = dir }
}

// WithDebounce overrides the reload debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithAutoReload sets the initial auto-reload flag.
func WithAutoReload(enabled bool) Option {
	return func(s *Session) { s.auto = enabled }
}

// WithStrictHandles makes double-release of a callback reference panic
// instead of logging.
func WithStrictHandles() Option {
	return func(s *Session) { s.strict = true }
}

// New creates an unconfigured session. Nothing runs until Initialize.
func New(opts ...Option) *Session {
	s := &Session{
		log:         zap.NewNop(),
		projections: make(map[string]*model.Projection),
		configDir:   ".",
		auto:        true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize builds the session's components. It runs at most once;
// args are copied and kept for the session's lifetime.
func (s *Session) Initialize(args []string) error {
	if !s.initialized.CompareAndSwap(false, true) {
		return errors.InvalidInput(errors.PhaseInit, "initialize called twice")
	}

	cfg, err := LoadOptional(s.configDir)
	if err != nil {
		s.initialized.Store(false)
		return err
	}
	s.applyConfig(cfg)

	s.args = append([]string(nil), args...)

	if s.strict {
		s.registry = resource.NewStrict(s.log)
	} else {
		s.registry = resource.New(s.log)
	}
	s.store = state.NewStore(s.log)
	s.forwarder = signal.New(s.registry, signal.NewHostContext(s.log), s.log)
	s.engine = engine.New(s.store, s.log)
	s.engine.SetEmitter(s.forwarder)
	if cfg.QuitOnLastWindow != nil {
		s.engine.SetQuitOnLastWindowClosed(*cfg.QuitOnLastWindow)
	}

	wopts := []watch.Option{
		watch.WithLogger(s.log),
		watch.WithAutoReload(s.auto),
	}
	if s.debounce > 0 {
		wopts = append(wopts, watch.WithDebounce(s.debounce))
	}
	s.watcher, err = watch.New(s.reloadPath, wopts...)
	if err != nil {
		s.forwarder.Close()
		s.engine.Close()
		_ = s.registry.Close()
		s.initialized.Store(false)
		return err
	}

	s.log.Info("session initialized", zap.Strings("args", s.args))
	return nil
}

// Engine returns the underlying engine, or nil before Initialize. It
// exists for tree inspection; mutating calls go through the session.
func (s *Session) Engine() *engine.Engine {
	if !s.ready("Engine") {
		return nil
	}
	return s.engine
}

// Args returns the arguments passed to Initialize.
func (s *Session) Args() []string {
	if !s.ready("Args") {
		return nil
	}
	return append([]string(nil), s.args...)
}

// LoadDefinition loads a definition file onto the UI loop. On success
// the path is registered with the watcher so later saves can reload it.
func (s *Session) LoadDefinition(path string) bool {
	if !s.ready("LoadDefinition") {
		return false
	}
	if err := s.engine.Load(path); err != nil {
		s.log.Error("load definition failed", zap.String("path", path), zap.Error(err))
		return false
	}
	if err := s.watcher.Watch(path); err != nil {
		s.log.Warn("watch registration failed", zap.String("path", path), zap.Error(err))
	}
	return true
}

// SetProperty stores a string property.
func (s *Session) SetProperty(name, value string) {
	if !s.ready("SetProperty") {
		return
	}
	s.store.Set(name, bridge.String(value))
}

// SetPropertyValue stores a typed property.
func (s *Session) SetPropertyValue(name string, value bridge.Scalar) {
	if !s.ready("SetPropertyValue") {
		return
	}
	s.store.Set(name, value)
}

// GetProperty returns a property, or the absent scalar when unset.
func (s *Session) GetProperty(name string) bridge.Scalar {
	if !s.ready("GetProperty") {
		return bridge.Absent
	}
	return s.store.Get(name)
}

// HasProperty reports whether a property has been set.
func (s *Session) HasProperty(name string) bool {
	if !s.ready("HasProperty") {
		return false
	}
	return s.store.Has(name)
}

// RegisterHandler binds h to the named event, replacing any previous
// handler for that name.
func (s *Session) RegisterHandler(name string, h bridge.Handler) error {
	if !s.ready("RegisterHandler") {
		return errors.NotInitialized(errors.PhaseDispatch, "RegisterHandler")
	}
	return s.forwarder.Register(name, h)
}

// UnregisterHandler removes the handler for name, if any.
func (s *Session) UnregisterHandler(name string) {
	if !s.ready("UnregisterHandler") {
		return
	}
	s.forwarder.Unregister(name)
}

// EmitFromUI dispatches a UI-side event into the host's handler.
func (s *Session) EmitFromUI(name string, args []bridge.Scalar) {
	if !s.ready("EmitFromUI") {
		return
	}
	s.forwarder.Emit(name, args)
}

// CreateProjection creates the named list projection and attaches it
// to the engine. Creating an existing projection is a no-op.
func (s *Session) CreateProjection(name string) {
	if !s.ready("CreateProjection") {
		return
	}
	s.mu.Lock()
	if _, ok := s.projections[name]; ok {
		s.mu.Unlock()
		return
	}
	p := model.NewProjection(name, s.log)
	s.projections[name] = p
	s.mu.Unlock()

	s.engine.AttachProjection(p)
	s.log.Info("projection created", zap.String("name", name))
}

// SetProjectionData replaces the named projection's contents from a
// JSON array document.
func (s *Session) SetProjectionData(name, data string) error {
	if !s.ready("SetProjectionData") {
		return errors.NotInitialized(errors.PhaseState, "SetProjectionData")
	}
	p, ok := s.projection(name)
	if !ok {
		s.log.Warn("unknown projection", zap.String("name", name))
		return errors.NotFound(errors.PhaseState, "projection", name)
	}
	return p.SetData([]byte(data))
}

// ClearProjection empties the named projection. Role registrations
// survive the clear.
func (s *Session) ClearProjection(name string) {
	if !s.ready("ClearProjection") {
		return
	}
	p, ok := s.projection(name)
	if !ok {
		s.log.Warn("unknown projection", zap.String("name", name))
		return
	}
	p.Clear()
}

// ProjectionCount returns the row count of the named projection, or
// zero for an unknown name.
func (s *Session) ProjectionCount(name string) int {
	if !s.ready("ProjectionCount") {
		return 0
	}
	p, ok := s.projection(name)
	if !ok {
		s.log.Warn("unknown projection", zap.String("name", name))
		return 0
	}
	return p.Count()
}

// Projection returns the named projection for direct inspection.
func (s *Session) Projection(name string) (*model.Projection, bool) {
	if !s.ready("Projection") {
		return nil, false
	}
	return s.projection(name)
}

// SetAutoReload toggles reload-on-save for watched definitions.
func (s *Session) SetAutoReload(enabled bool) {
	if !s.ready("SetAutoReload") {
		return
	}
	s.watcher.SetAutoReload(enabled)
}

// AutoReloadEnabled reports whether reload-on-save is active.
func (s *Session) AutoReloadEnabled() bool {
	if !s.ready("AutoReloadEnabled") {
		return false
	}
	return s.watcher.AutoReloadEnabled()
}

// RunLoop runs the UI loop on the calling goroutine until Quit. It
// returns the exit code.
func (s *Session) RunLoop() int {
	if !s.ready("RunLoop") {
		return -1
	}
	return s.engine.Loop().Run()
}

// Quit asks the UI loop to stop with exit code zero.
func (s *Session) Quit() {
	if !s.ready("Quit") {
		return
	}
	s.engine.Loop().Quit(0)
}

// Close tears the session down. The registry closes last so that every
// reference retained by other components has already been released.
func (s *Session) Close() error {
	if !s.initialized.Load() {
		return nil
	}
	if !s.closed.CompareAndSwap(false, true) {
		return errors.Closed(errors.PhaseState, "session")
	}

	if err := s.watcher.Close(); err != nil {
		s.log.Warn("watcher close", zap.Error(err))
	}
	s.forwarder.Close()

	s.mu.Lock()
	s.projections = make(map[string]*model.Projection)
	s.mu.Unlock()

	s.engine.Close()
	err := s.registry.Close()
	s.log.Info("session closed")
	return err
}

func (s *Session) projection(name string) (*model.Projection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projections[name]
	return p, ok
}

func (s *Session) reloadPath(path string) error {
	return s.engine.Reload(path)
}

func (s *Session) ready(op string) bool {
	if !s.initialized.Load() {
		s.log.Warn("called before initialize", zap.String("op", op))
		return false
	}
	if s.closed.Load() {
		s.log.Warn("called after close", zap.String("op", op))
		return false
	}
	return true
}

func (s *Session) applyConfig(cfg *Config) {
	if s.debounce == 0 {
		s.debounce = cfg.Debounce()
	}
	if cfg.AutoReload != nil {
		s.auto = *cfg.AutoReload
	}
	if !s.logSet && cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		if log, err := zc.Build(); err == nil {
			s.log = log
		}
	}
}
