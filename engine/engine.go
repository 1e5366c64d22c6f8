package engine

import (
	"os"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"

	"github.com/lumenui/bridge"
	berrors "github.com/lumenui/bridge/errors"
	"github.com/lumenui/bridge/model"
	"github.com/lumenui/bridge/state"
)

// Emitter receives events activated inside the UI tree. The session wires
// the forwarder here.
type Emitter interface {
	Emit(name string, args []bridge.Scalar)
}

// Engine owns the loop, the node arena, and the definition cache, and
// keeps the built tree in sync with the property store and projections.
//
// Public methods are safe to call from any goroutine: tree-affecting work
// is marshaled onto the loop and completes synchronously before return.
type Engine struct {
	loop  *Loop
	arena *Arena
	store *state.Store
	log   *zap.Logger

	mu          sync.Mutex
	cache       map[string]*Definition
	roots       []NodeID
	bindings    []binding
	listNodes   []NodeID
	projections map[string]*model.Projection
	projObs     map[string]*projectionObserver
	emitter     Emitter

	quitOnLastWindow bool
}

type binding struct {
	expr hcl.Expression
	attr string
	node NodeID
}

type projectionObserver struct {
	e    *Engine
	name string
}

func (o *projectionObserver) ModelReset(string) {
	o.e.loop.Post(func() { o.e.syncLists(o.name) })
}

// New creates an engine bound to a property store.
func New(store *state.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = Logger()
	}
	e := &Engine{
		loop:             NewLoop(log),
		arena:            NewArena(log),
		store:            store,
		log:              log,
		cache:            make(map[string]*Definition),
		projections:      make(map[string]*model.Projection),
		projObs:          make(map[string]*projectionObserver),
		quitOnLastWindow: true,
	}
	e.loop.OnTickEnd(func() { e.arena.DrainDeferred() })
	store.Subscribe(e)
	return e
}

// Loop returns the engine's event loop.
func (e *Engine) Loop() *Loop { return e.loop }

// Arena returns the node arena.
func (e *Engine) Arena() *Arena { return e.arena }

// SetEmitter wires the receiver for on_* activations.
func (e *Engine) SetEmitter(em Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitter = em
}

// SetQuitOnLastWindowClosed controls whether a user-initiated close of
// the last window quits the loop. Reload teardown never quits.
func (e *Engine) SetQuitOnLastWindowClosed(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quitOnLastWindow = v
}

// Load builds the definition at path, adding its windows as new roots.
// Runs on the UI goroutine; on failure existing roots are untouched.
func (e *Engine) Load(path string) error {
	var err error
	e.loop.Invoke(func() { err = e.load(path) })
	return err
}

// Reload is the hot-reload pipeline: tear down all roots, purge the
// definition cache, rebuild from disk. On failure the old tree is
// already gone — the error reports a windowless UI, not a crash.
func (e *Engine) Reload(path string) error {
	var err error
	e.loop.Invoke(func() {
		e.teardownRoots()
		e.clearCache()
		err = e.load(path)
	})
	if err != nil {
		return berrors.ReloadFailed(path, err.Error())
	}
	return nil
}

// TeardownRoots marks every root subtree for deferred release and drops
// all bindings. Runs on the UI goroutine.
func (e *Engine) TeardownRoots() {
	e.loop.Invoke(e.teardownRoots)
}

// ClearComponentCache purges compiled definitions.
func (e *Engine) ClearComponentCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearCacheLocked()
}

// RootNodes returns the current root nodes.
func (e *Engine) RootNodes() []NodeID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]NodeID, len(e.roots))
	copy(out, e.roots)
	return out
}

// RootCount returns the number of live roots.
func (e *Engine) RootCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.roots)
}

// CloseWindow releases a root in response to a user close. Closing the
// last window quits the loop when so configured.
func (e *Engine) CloseWindow(id NodeID) {
	e.loop.Invoke(func() {
		e.mu.Lock()
		found := false
		for i, r := range e.roots {
			if r == id {
				e.roots = append(e.roots[:i], e.roots[i+1:]...)
				found = true
				break
			}
		}
		last := len(e.roots) == 0
		quit := e.quitOnLastWindow
		e.mu.Unlock()

		if !found {
			return
		}
		e.arena.MarkForRelease(id)
		e.log.Info("window closed", zap.Uint64("node", uint64(id)))
		if last && quit {
			e.loop.Quit(0)
		}
	})
}

// AttachProjection makes a projection visible to list nodes and keeps
// their counts in sync across resets.
func (e *Engine) AttachProjection(p *model.Projection) {
	obs := &projectionObserver{e: e, name: p.Name()}

	e.mu.Lock()
	if _, ok := e.projections[p.Name()]; ok {
		e.mu.Unlock()
		return
	}
	e.projections[p.Name()] = p
	e.projObs[p.Name()] = obs
	e.mu.Unlock()

	p.Subscribe(obs)
	e.loop.Invoke(func() { e.syncLists(p.Name()) })
}

// Click activates a button node: its on_click attribute names the event
// to emit. UI goroutine only.
func (e *Engine) Click(id NodeID) {
	name, ok := e.arena.Prop(id, "on_click").AsString()
	if !ok || name == "" {
		e.log.Debug("click on node without on_click", zap.Uint64("node", uint64(id)))
		return
	}

	e.mu.Lock()
	em := e.emitter
	e.mu.Unlock()
	if em == nil {
		e.log.Warn("no emitter wired", zap.String("event", name))
		return
	}
	em.Emit(name, nil)
}

// PropertyChanged implements state.Observer: every property change
// refreshes every binding on the UI goroutine. The full refresh is the
// documented cost model, not an accident.
func (e *Engine) PropertyChanged(string, bridge.Scalar) {
	e.loop.Post(e.refreshBindings)
}

// Close detaches the engine from its inputs and tears the tree down.
func (e *Engine) Close() {
	e.store.Unsubscribe(e)

	e.mu.Lock()
	projs := e.projections
	obs := e.projObs
	e.projections = make(map[string]*model.Projection)
	e.projObs = make(map[string]*projectionObserver)
	e.mu.Unlock()

	for name, p := range projs {
		p.Unsubscribe(obs[name])
	}

	e.loop.Invoke(func() {
		e.teardownRoots()
		e.arena.DrainDeferred()
	})
}

func (e *Engine) load(path string) error {
	e.mu.Lock()
	def, cached := e.cache[path]
	e.mu.Unlock()

	if !cached {
		src, err := os.ReadFile(path)
		if err != nil {
			e.log.Error("cannot read definition", zap.String("path", path), zap.Error(err))
			return berrors.Parse(berrors.PhaseLoad, path, err)
		}
		def, err = ParseDefinition(path, src)
		if err != nil {
			e.log.Error("definition rejected", zap.String("path", path), zap.Error(err))
			return err
		}
		e.mu.Lock()
		e.cache[path] = def
		e.mu.Unlock()
	}

	for _, w := range def.Windows {
		root := e.buildNode(w, 0)
		e.mu.Lock()
		e.roots = append(e.roots, root)
		e.mu.Unlock()
	}

	e.log.Info("definition loaded",
		zap.String("path", path),
		zap.Bool("cached", cached),
		zap.Int("windows", len(def.Windows)))
	return nil
}

func (e *Engine) buildNode(spec *NodeSpec, parent NodeID) NodeID {
	id := e.arena.New(spec.Kind, spec.Label, parent)
	ctx := e.evalContext()

	for _, attr := range spec.Attrs {
		e.applyAttr(id, attr, ctx)
		if bound(attr.Expr) {
			e.mu.Lock()
			e.bindings = append(e.bindings, binding{node: id, attr: attr.Name, expr: attr.Expr})
			e.mu.Unlock()
		}
	}

	if spec.Kind == KindList {
		e.mu.Lock()
		e.listNodes = append(e.listNodes, id)
		e.mu.Unlock()
		e.syncList(id)
	}

	for _, c := range spec.Children {
		e.buildNode(c, id)
	}
	return id
}

func (e *Engine) applyAttr(id NodeID, attr AttrSpec, ctx *hcl.EvalContext) {
	val, diags := attr.Expr.Value(ctx)
	if diags.HasErrors() {
		e.log.Warn("attribute evaluation failed",
			zap.String("attr", attr.Name),
			zap.String("error", diags.Error()))
		e.arena.SetProp(id, attr.Name, bridge.Absent)
		return
	}
	e.arena.SetProp(id, attr.Name, ctyToScalar(val))
}

func (e *Engine) refreshBindings() {
	ctx := e.evalContext()

	e.mu.Lock()
	bindings := make([]binding, len(e.bindings))
	copy(bindings, e.bindings)
	e.mu.Unlock()

	for _, b := range bindings {
		if !e.arena.Live(b.node) {
			continue
		}
		e.applyAttr(b.node, AttrSpec{Name: b.attr, Expr: b.expr}, ctx)
	}
}

func (e *Engine) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"state": e.store.CtyObject(),
		},
	}
}

// syncLists refreshes the count of every list node fed by projection name.
func (e *Engine) syncLists(name string) {
	e.mu.Lock()
	nodes := make([]NodeID, len(e.listNodes))
	copy(nodes, e.listNodes)
	e.mu.Unlock()

	for _, id := range nodes {
		if e.arena.Label(id) == name {
			e.syncList(id)
		}
	}
}

func (e *Engine) syncList(id NodeID) {
	name := e.arena.Label(id)

	e.mu.Lock()
	p, ok := e.projections[name]
	e.mu.Unlock()

	if !ok {
		e.log.Warn("list references unknown projection", zap.String("projection", name))
		e.arena.SetProp(id, "count", bridge.Number(0))
		return
	}
	e.arena.SetProp(id, "count", bridge.Number(float64(p.Count())))
}

func (e *Engine) teardownRoots() {
	e.mu.Lock()
	roots := e.roots
	e.roots = nil
	e.bindings = nil
	e.listNodes = nil
	e.mu.Unlock()

	for _, r := range roots {
		e.arena.MarkForRelease(r)
	}
	if len(roots) > 0 {
		e.log.Info("roots scheduled for destruction", zap.Int("count", len(roots)))
	}
}

func (e *Engine) clearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearCacheLocked()
}

func (e *Engine) clearCacheLocked() {
	if len(e.cache) > 0 {
		e.log.Debug("component cache cleared", zap.Int("entries", len(e.cache)))
	}
	e.cache = make(map[string]*Definition)
}
