package engine

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumenui/bridge"
	"github.com/lumenui/bridge/model"
	"github.com/lumenui/bridge/state"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEmitter) Emit(name string, args []bridge.Scalar) {
	r.mu.Lock()
	r.events = append(r.events, name)
	r.mu.Unlock()
}

func writeDefinition(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// newRunningEngine starts the engine's loop and registers cleanup.
func newRunningEngine(t *testing.T) (*Engine, *state.Store) {
	t.Helper()
	store := state.NewStore(nil)
	e := New(store, nil)

	exit := make(chan int, 1)
	go func() { exit <- e.Loop().Run() }()
	for !e.Loop().Running() {
		runtime.Gosched()
	}
	e.Loop().Invoke(func() {}) // barrier: loop is serving

	t.Cleanup(func() {
		e.Close()
		e.Loop().Quit(0)
		select {
		case <-exit:
		case <-time.After(2 * time.Second):
			t.Error("loop did not exit")
		}
	})
	return e, store
}

// barrier waits until all previously posted loop work has run.
func barrier(e *Engine) { e.Loop().Invoke(func() {}) }

func TestEngine_LoadBuildsTree(t *testing.T) {
	e, store := newRunningEngine(t)
	store.Set("status", bridge.String("ready"))

	path := writeDefinition(t, t.TempDir(), "main.ui.hcl", goodDefinition)
	require.NoError(t, e.Load(path))
	require.Equal(t, 1, e.RootCount())

	win := e.RootNodes()[0]
	a := e.Arena()
	require.Equal(t, KindWindow, a.Kind(win))

	title, _ := a.Prop(win, "title").AsString()
	require.Equal(t, "Inventory", title)
	width, _ := a.Prop(win, "width").AsNumber()
	require.Equal(t, float64(400), width)

	col := a.Children(win)[0]
	text := a.Children(col)[0]
	got, _ := a.Prop(text, "value").AsString()
	require.Equal(t, "ready", got)
}

func TestEngine_BindingsFollowProperties(t *testing.T) {
	e, store := newRunningEngine(t)
	store.Set("status", bridge.String("before"))

	path := writeDefinition(t, t.TempDir(), "main.ui.hcl", goodDefinition)
	require.NoError(t, e.Load(path))

	win := e.RootNodes()[0]
	text := e.Arena().Children(e.Arena().Children(win)[0])[0]

	store.Set("status", bridge.String("after"))
	barrier(e)

	got, _ := e.Arena().Prop(text, "value").AsString()
	require.Equal(t, "after", got)
}

func TestEngine_UnresolvedBindingIsAbsent(t *testing.T) {
	e, _ := newRunningEngine(t)

	src := `window "w" { title = state.missing }`
	path := writeDefinition(t, t.TempDir(), "w.ui.hcl", src)
	require.NoError(t, e.Load(path))

	win := e.RootNodes()[0]
	require.True(t, e.Arena().Prop(win, "title").IsAbsent())
}

func TestEngine_LoadFailureKeepsRoots(t *testing.T) {
	e, _ := newRunningEngine(t)
	dir := t.TempDir()

	good := writeDefinition(t, dir, "good.ui.hcl", `window "w" {}`)
	require.NoError(t, e.Load(good))
	require.Equal(t, 1, e.RootCount())

	bad := writeDefinition(t, dir, "bad.ui.hcl", `window "w" {`)
	require.Error(t, e.Load(bad))
	require.Equal(t, 1, e.RootCount(), "failed load must not disturb the live tree")

	require.Error(t, e.Load(filepath.Join(dir, "missing.ui.hcl")))
	require.Equal(t, 1, e.RootCount())
}

func TestEngine_DefinitionCache(t *testing.T) {
	e, _ := newRunningEngine(t)
	dir := t.TempDir()
	path := writeDefinition(t, dir, "w.ui.hcl", `window "w" { title = "v1" }`)

	require.NoError(t, e.Load(path))

	// Rewrite the file; the cached compile still serves the old content.
	writeDefinition(t, dir, "w.ui.hcl", `window "w" { title = "v2" }`)
	require.NoError(t, e.Load(path))

	roots := e.RootNodes()
	require.Len(t, roots, 2)
	title, _ := e.Arena().Prop(roots[1], "title").AsString()
	require.Equal(t, "v1", title, "second load must come from the cache")

	// After a purge the fresh content is compiled.
	e.ClearComponentCache()
	require.NoError(t, e.Load(path))
	roots = e.RootNodes()
	title, _ = e.Arena().Prop(roots[2], "title").AsString()
	require.Equal(t, "v2", title)
}

func TestEngine_ReloadRebuildsFromDisk(t *testing.T) {
	e, _ := newRunningEngine(t)
	dir := t.TempDir()
	path := writeDefinition(t, dir, "w.ui.hcl", `window "w" { title = "v1" }`)

	require.NoError(t, e.Load(path))
	oldRoot := e.RootNodes()[0]

	writeDefinition(t, dir, "w.ui.hcl", `window "w" { title = "v2" }`)
	require.NoError(t, e.Reload(path))
	barrier(e)

	require.False(t, e.Arena().Live(oldRoot), "old root must be destroyed")
	require.Equal(t, 1, e.RootCount())
	title, _ := e.Arena().Prop(e.RootNodes()[0], "title").AsString()
	require.Equal(t, "v2", title)
}

func TestEngine_ReloadFailureLeavesNoRoots(t *testing.T) {
	e, _ := newRunningEngine(t)
	dir := t.TempDir()
	path := writeDefinition(t, dir, "w.ui.hcl", `window "w" {}`)

	require.NoError(t, e.Load(path))

	writeDefinition(t, dir, "w.ui.hcl", `window "w" {`)
	err := e.Reload(path)
	require.Error(t, err)
	require.Equal(t, 0, e.RootCount(), "old tree is gone even when reload fails")

	// The engine is not wedged: a later valid reload succeeds.
	writeDefinition(t, dir, "w.ui.hcl", `window "w" { title = "back" }`)
	require.NoError(t, e.Reload(path))
	require.Equal(t, 1, e.RootCount())
}

func TestEngine_CloseWindowQuitsOnLast(t *testing.T) {
	store := state.NewStore(nil)
	e := New(store, nil)

	exit := make(chan int, 1)
	go func() { exit <- e.Loop().Run() }()
	e.Loop().Invoke(func() {})

	path := writeDefinition(t, t.TempDir(), "w.ui.hcl", `window "w" {}`)
	require.NoError(t, e.Load(path))

	e.CloseWindow(e.RootNodes()[0])

	select {
	case code := <-exit:
		require.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not quit after last window closed")
	}
}

func TestEngine_ProjectionDrivesListCount(t *testing.T) {
	e, _ := newRunningEngine(t)

	p := model.NewProjection("items", nil)
	e.AttachProjection(p)

	path := writeDefinition(t, t.TempDir(), "w.ui.hcl", `
window "w" {
  list "items" {}
}`)
	require.NoError(t, e.Load(path))

	win := e.RootNodes()[0]
	listNode := e.Arena().Children(win)[0]
	count, _ := e.Arena().Prop(listNode, "count").AsNumber()
	require.Equal(t, float64(0), count)

	require.NoError(t, p.SetData([]byte(`[{"name":"a"},{"name":"b"}]`)))
	barrier(e)

	count, _ = e.Arena().Prop(listNode, "count").AsNumber()
	require.Equal(t, float64(2), count)
}

func TestEngine_ClickEmits(t *testing.T) {
	e, _ := newRunningEngine(t)
	em := &recordingEmitter{}
	e.SetEmitter(em)

	path := writeDefinition(t, t.TempDir(), "w.ui.hcl", `
window "w" {
  button {
    on_click = "saveClicked"
  }
}`)
	require.NoError(t, e.Load(path))

	win := e.RootNodes()[0]
	button := e.Arena().Children(win)[0]
	e.Loop().Invoke(func() { e.Click(button) })

	em.mu.Lock()
	defer em.mu.Unlock()
	require.Equal(t, []string{"saveClicked"}, em.events)
}
