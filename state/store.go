package state

import (
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"

	"github.com/lumenui/bridge"
)

// Observer receives one callback per Set, on the setter's goroutine.
// Consumers needing UI-thread affinity re-post themselves.
type Observer interface {
	PropertyChanged(name string, value bridge.Scalar)
}

// Store is the scalar key/value state consumed by UI bindings.
// All methods are safe for concurrent use. The lock is never held across
// observer callbacks.
type Store struct {
	props     map[string]bridge.Scalar
	observers []Observer
	log       *zap.Logger
	mu        sync.RWMutex
	obsMu     sync.RWMutex
}

// NewStore creates an empty property store.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		props: make(map[string]bridge.Scalar),
		log:   log,
	}
}

// Set stores value under name and issues exactly one change notification,
// even when the new value equals the old one.
func (s *Store) Set(name string, value bridge.Scalar) {
	s.mu.Lock()
	s.props[name] = value
	s.mu.Unlock()

	s.log.Debug("property set",
		zap.String("name", name),
		zap.String("value", value.Render()))

	s.obsMu.RLock()
	obs := make([]Observer, len(s.observers))
	copy(obs, s.observers)
	s.obsMu.RUnlock()

	for _, o := range obs {
		o.PropertyChanged(name, value)
	}
}

// Get returns the value for name, or the absent sentinel.
func (s *Store) Get(name string) bridge.Scalar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.props[name]; ok {
		return v
	}
	return bridge.Absent
}

// Has reports whether name has been set.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.props[name]
	return ok
}

// Names returns all property names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.props))
	for n := range s.props {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored properties.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.props)
}

// Subscribe adds an observer.
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// Unsubscribe removes an observer.
func (s *Store) Unsubscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	for i, obs := range s.observers {
		if obs == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// CtyObject snapshots the store as a cty object value for definition
// evaluation contexts. Bindings read properties as state.<name>.
func (s *Store) CtyObject() cty.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.props) == 0 {
		return cty.EmptyObjectVal
	}

	attrs := make(map[string]cty.Value, len(s.props))
	for name, v := range s.props {
		attrs[name] = scalarToCty(v)
	}
	return cty.ObjectVal(attrs)
}

func scalarToCty(v bridge.Scalar) cty.Value {
	switch v.Kind() {
	case bridge.KindString:
		s, _ := v.AsString()
		return cty.StringVal(s)
	case bridge.KindNumber:
		f, _ := v.AsNumber()
		return cty.NumberFloatVal(f)
	case bridge.KindBool:
		b, _ := v.AsBool()
		return cty.BoolVal(b)
	}
	return cty.NullVal(cty.String)
}
