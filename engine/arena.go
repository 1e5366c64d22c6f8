package engine

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/lumenui/bridge"
)

// NodeID is an opaque handle to a UI-tree node. 0 is invalid.
type NodeID uint64

// NodeKind names the node types the definition language can declare.
type NodeKind string

const (
	KindWindow NodeKind = "window"
	KindColumn NodeKind = "column"
	KindRow    NodeKind = "row"
	KindText   NodeKind = "text"
	KindButton NodeKind = "button"
	KindList   NodeKind = "list"
)

type node struct {
	props    map[string]bridge.Scalar
	label    string
	kind     NodeKind
	parent   NodeID
	children []NodeID
}

// Arena owns the UI-tree nodes. Destruction is deferred: MarkForRelease
// schedules a subtree, DrainDeferred (wired to the loop's tick end)
// destroys it. Mutation happens on the UI goroutine; reads like Len are
// safe from anywhere.
type Arena struct {
	nodes    map[NodeID]*node
	deferred []NodeID
	log      *zap.Logger
	next     NodeID
	mu       sync.Mutex
}

// NewArena creates an empty arena.
func NewArena(log *zap.Logger) *Arena {
	if log == nil {
		log = Logger()
	}
	return &Arena{
		nodes: make(map[NodeID]*node),
		log:   log,
	}
}

// New allocates a node. parent 0 creates a root.
func (a *Arena) New(kind NodeKind, label string, parent NodeID) NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.next++
	id := a.next
	a.nodes[id] = &node{
		kind:   kind,
		label:  label,
		parent: parent,
		props:  make(map[string]bridge.Scalar),
	}
	if p, ok := a.nodes[parent]; ok {
		p.children = append(p.children, id)
	}
	return id
}

// Live reports whether id refers to an existing node.
func (a *Arena) Live(id NodeID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.nodes[id]
	return ok
}

// Kind returns the node's kind, or "" for a dead node.
func (a *Arena) Kind(id NodeID) NodeKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.nodes[id]; ok {
		return n.kind
	}
	return ""
}

// Label returns the node's block label.
func (a *Arena) Label(id NodeID) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.nodes[id]; ok {
		return n.label
	}
	return ""
}

// SetProp sets a property on a node. Dead nodes are ignored — a binding
// may fire for a node already marked for release.
func (a *Arena) SetProp(id NodeID, name string, v bridge.Scalar) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.nodes[id]; ok {
		n.props[name] = v
	}
}

// Prop returns a node property, or the absent sentinel.
func (a *Arena) Prop(id NodeID, name string) bridge.Scalar {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.nodes[id]; ok {
		if v, ok := n.props[name]; ok {
			return v
		}
	}
	return bridge.Absent
}

// PropNames returns a node's property names in sorted order.
func (a *Arena) PropNames(id NodeID) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(n.props))
	for name := range n.props {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Children returns a node's children in declaration order.
func (a *Arena) Children(id NodeID) []NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.nodes[id]; ok {
		out := make([]NodeID, len(n.children))
		copy(out, n.children)
		return out
	}
	return nil
}

// Len returns the number of live nodes.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.nodes)
}

// MarkForRelease schedules id's subtree for destruction at the end of
// the current tick.
func (a *Arena) MarkForRelease(id NodeID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.nodes[id]; !ok {
		return
	}
	a.deferred = append(a.deferred, id)
}

// DrainDeferred destroys all scheduled subtrees. Returns the number of
// nodes destroyed. Runs at the loop's tick end.
func (a *Arena) DrainDeferred() int {
	a.mu.Lock()
	pending := a.deferred
	a.deferred = nil

	destroyed := 0
	for _, root := range pending {
		destroyed += a.destroyLocked(root)
	}
	a.mu.Unlock()

	if destroyed > 0 {
		a.log.Debug("destroyed deferred nodes", zap.Int("count", destroyed))
	}
	return destroyed
}

func (a *Arena) destroyLocked(id NodeID) int {
	n, ok := a.nodes[id]
	if !ok {
		return 0
	}

	count := 1
	for _, c := range n.children {
		count += a.destroyLocked(c)
	}

	if p, ok := a.nodes[n.parent]; ok {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	delete(a.nodes, id)
	return count
}
