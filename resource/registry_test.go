package resource

import (
	"sync"
	"testing"
)

type testObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *testObserver) OnRegistryEvent(e Event) {
	o.mu.Lock()
	o.events = append(o.events, e)
	o.mu.Unlock()
}

func (o *testObserver) count(t EventType) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type testReleaser struct {
	released int
}

func (r *testReleaser) Release() { r.released++ }

func TestRegistry_Basic(t *testing.T) {
	reg := New(nil)

	h := reg.Retain("callback")
	if h == 0 {
		t.Fatal("expected non-zero handle")
	}

	v, ok := reg.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if v != "callback" {
		t.Fatalf("expected 'callback', got %v", v)
	}

	if err := reg.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if _, ok := reg.Get(h); ok {
		t.Fatal("Get succeeded after Release")
	}
	if reg.Len() != 0 {
		t.Fatal("expected Len() == 0 after Release")
	}
}

func TestRegistry_DoubleRelease(t *testing.T) {
	reg := New(nil)
	h := reg.Retain(1)

	if err := reg.Release(h); err != nil {
		t.Fatalf("first release failed: %v", err)
	}
	if err := reg.Release(h); err == nil {
		t.Fatal("expected error on double release")
	}
}

func TestRegistry_DoubleReleaseStrict(t *testing.T) {
	reg := NewStrict(nil)
	h := reg.Retain(1)

	if err := reg.Release(h); err != nil {
		t.Fatalf("first release failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on strict double release")
		}
	}()
	_ = reg.Release(h)
}

func TestRegistry_HandlesNotReused(t *testing.T) {
	reg := New(nil)
	h1 := reg.Retain("a")
	if err := reg.Release(h1); err != nil {
		t.Fatal(err)
	}
	h2 := reg.Retain("b")
	if h1 == h2 {
		t.Fatal("handle reused after release")
	}
}

func TestRegistry_ReleaserCallback(t *testing.T) {
	reg := New(nil)
	rel := &testReleaser{}

	h := reg.Retain(rel)
	if err := reg.Release(h); err != nil {
		t.Fatal(err)
	}
	if rel.released != 1 {
		t.Fatalf("expected 1 release callback, got %d", rel.released)
	}
}

func TestRegistry_Observer(t *testing.T) {
	reg := New(nil)
	obs := &testObserver{}
	reg.Subscribe(obs)

	h := reg.Retain("x")
	if err := reg.Release(h); err != nil {
		t.Fatal(err)
	}

	if obs.count(EventRetained) != 1 || obs.count(EventReleased) != 1 {
		t.Fatalf("expected 1 retained + 1 released, got %d + %d",
			obs.count(EventRetained), obs.count(EventReleased))
	}

	reg.Unsubscribe(obs)
	reg.Retain("y")
	if obs.count(EventRetained) != 1 {
		t.Fatal("observer still notified after Unsubscribe")
	}
}

func TestRegistry_CloseReleasesAll(t *testing.T) {
	reg := New(nil)
	rels := []*testReleaser{{}, {}, {}}
	for _, r := range rels {
		reg.Retain(r)
	}

	if err := reg.Close(); err != nil {
		t.Fatal(err)
	}

	for i, r := range rels {
		if r.released != 1 {
			t.Errorf("releaser %d: released %d times", i, r.released)
		}
	}
	if reg.Len() != 0 {
		t.Fatal("expected empty registry after Close")
	}

	if h := reg.Retain("late"); h != 0 {
		t.Fatal("Retain succeeded on closed registry")
	}
	if err := reg.Close(); err == nil {
		t.Fatal("expected error on second Close")
	}
}

func TestRegistry_ConcurrentRetainRelease(t *testing.T) {
	reg := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := reg.Retain(j)
				if _, ok := reg.Get(h); !ok {
					t.Error("Get failed for live handle")
					return
				}
				if err := reg.Release(h); err != nil {
					t.Errorf("Release failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}
