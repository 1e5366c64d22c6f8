package state

import (
	"sync"
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/lumenui/bridge"
)

type recordingObserver struct {
	mu      sync.Mutex
	changes []string
}

func (o *recordingObserver) PropertyChanged(name string, value bridge.Scalar) {
	o.mu.Lock()
	o.changes = append(o.changes, name+"="+value.Render())
	o.mu.Unlock()
}

func TestStore_SetGetHas(t *testing.T) {
	s := NewStore(nil)

	if s.Has("title") {
		t.Fatal("Has true on empty store")
	}
	if got := s.Get("title"); !got.IsAbsent() {
		t.Fatalf("expected absent, got %v", got.Kind())
	}

	s.Set("title", bridge.String("Inventory"))

	if !s.Has("title") {
		t.Fatal("Has false after Set")
	}
	if got, _ := s.Get("title").AsString(); got != "Inventory" {
		t.Fatalf("Get = %q", got)
	}
}

func TestStore_NoEqualitySuppression(t *testing.T) {
	s := NewStore(nil)
	obs := &recordingObserver{}
	s.Subscribe(obs)

	s.Set("x", bridge.String("1"))
	s.Set("x", bridge.String("1"))

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.changes) != 2 {
		t.Fatalf("expected 2 notifications for identical sets, got %d", len(obs.changes))
	}
}

func TestStore_OneNotificationPerSet(t *testing.T) {
	s := NewStore(nil)
	obs := &recordingObserver{}
	s.Subscribe(obs)

	s.Set("a", bridge.Number(1))
	s.Set("b", bridge.Bool(true))
	s.Set("a", bridge.Number(2))

	obs.mu.Lock()
	defer obs.mu.Unlock()
	want := []string{"a=1", "b=true", "a=2"}
	if len(obs.changes) != len(want) {
		t.Fatalf("got %d notifications: %v", len(obs.changes), obs.changes)
	}
	for i, w := range want {
		if obs.changes[i] != w {
			t.Errorf("notification %d = %q, want %q", i, obs.changes[i], w)
		}
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s := NewStore(nil)
	obs := &recordingObserver{}
	s.Subscribe(obs)
	s.Unsubscribe(obs)

	s.Set("x", bridge.Null())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.changes) != 0 {
		t.Fatal("observer notified after Unsubscribe")
	}
}

func TestStore_Names(t *testing.T) {
	s := NewStore(nil)
	s.Set("b", bridge.String("2"))
	s.Set("a", bridge.String("1"))

	names := s.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Names = %v", names)
	}
}

func TestStore_CtyObject(t *testing.T) {
	s := NewStore(nil)

	if !s.CtyObject().RawEquals(cty.EmptyObjectVal) {
		t.Fatal("empty store should project to empty object")
	}

	s.Set("title", bridge.String("hello"))
	s.Set("count", bridge.Number(3))
	s.Set("ready", bridge.Bool(true))
	s.Set("note", bridge.Null())

	obj := s.CtyObject()
	if got := obj.GetAttr("title"); got.AsString() != "hello" {
		t.Errorf("title = %v", got)
	}
	f, _ := obj.GetAttr("count").AsBigFloat().Float64()
	if f != 3 {
		t.Errorf("count = %v", f)
	}
	if obj.GetAttr("ready").False() {
		t.Error("ready should be true")
	}
	if !obj.GetAttr("note").IsNull() {
		t.Error("note should be null")
	}
}

func TestStore_ConcurrentSet(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set("shared", bridge.Number(float64(n)))
				_ = s.Get("shared")
			}
		}(i)
	}
	wg.Wait()

	if !s.Has("shared") {
		t.Fatal("property lost")
	}
}
