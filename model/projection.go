package model

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lumenui/bridge"
	berrors "github.com/lumenui/bridge/errors"
)

// roleBase offsets role ids away from small indices the UI runtime
// reserves for built-in roles.
const roleBase = 0x0100 + 1

// Observer is notified after a projection's contents are replaced.
// Notifications run on the mutating goroutine; the session re-posts
// UI-side consumers onto the loop.
type Observer interface {
	ModelReset(name string)
}

// Projection is a named, role-addressable list of records exposed to the
// UI runtime. Safe for concurrent use; the lock is never held across
// observer callbacks.
type Projection struct {
	name      string
	records   []Record
	roleIDs   map[string]int
	roleNames []string // registration order
	nextRole  int
	observers []Observer
	log       *zap.Logger
	mu        sync.RWMutex
	obsMu     sync.RWMutex
}

// NewProjection creates an empty projection.
func NewProjection(name string, log *zap.Logger) *Projection {
	if log == nil {
		log = zap.NewNop()
	}
	return &Projection{
		name:     name,
		roleIDs:  make(map[string]int),
		nextRole: roleBase,
		log:      log.With(zap.String("projection", name)),
	}
}

// Name returns the projection's registered name.
func (p *Projection) Name() string { return p.name }

// SetData parses raw as a JSON array of flat records and replaces the
// projection's contents wholesale, issuing one full-reset notification.
// Non-object entries and nested fields are skipped with a warning. A
// malformed document leaves the current contents untouched.
func (p *Projection) SetData(raw []byte) error {
	res, err := parseRecords(raw)
	if err != nil {
		p.log.Warn("rejecting projection data", zap.Error(err))
		return berrors.Parse(berrors.PhaseParse, p.name, err)
	}
	if res.skippedItems > 0 {
		p.log.Warn("skipped non-object entries", zap.Int("count", res.skippedItems))
	}
	if res.skippedFields > 0 {
		p.log.Warn("skipped nested fields", zap.Int("count", res.skippedFields))
	}

	p.mu.Lock()
	for _, rec := range res.records {
		for _, f := range rec.fields {
			p.registerRoleLocked(f.Name)
		}
	}
	p.records = res.records
	p.mu.Unlock()

	p.log.Debug("projection replaced", zap.Int("records", len(res.records)))
	p.notifyReset()
	return nil
}

// Clear empties the record sequence. The role table is retained — fields
// never shrink — and one full-reset notification is issued.
func (p *Projection) Clear() {
	p.mu.Lock()
	p.records = nil
	p.mu.Unlock()

	p.log.Debug("projection cleared")
	p.notifyReset()
}

// Count returns the current record count.
func (p *Projection) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.records)
}

// Roles returns the observed field set in registration order.
func (p *Projection) Roles() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.roleNames))
	copy(out, p.roleNames)
	return out
}

// RoleID returns the stable id assigned to a role name.
func (p *Projection) RoleID(name string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.roleIDs[name]
	return id, ok
}

// Value returns the value at (row, role). Out-of-range rows and unknown
// roles yield the absent sentinel.
func (p *Projection) Value(row int, role string) bridge.Scalar {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if row < 0 || row >= len(p.records) {
		p.log.Debug("value row out of range", zap.Int("row", row))
		return bridge.Absent
	}
	return p.records[row].Value(role)
}

// Record returns the record at row.
func (p *Projection) Record(row int) (Record, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if row < 0 || row >= len(p.records) {
		return Record{}, false
	}
	return p.records[row], true
}

// Subscribe adds a reset observer.
func (p *Projection) Subscribe(o Observer) {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	p.observers = append(p.observers, o)
}

// Unsubscribe removes a reset observer.
func (p *Projection) Unsubscribe(o Observer) {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	for i, obs := range p.observers {
		if obs == o {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			return
		}
	}
}

func (p *Projection) registerRoleLocked(name string) {
	if _, ok := p.roleIDs[name]; ok {
		return
	}
	p.roleIDs[name] = p.nextRole
	p.roleNames = append(p.roleNames, name)
	p.nextRole++
}

func (p *Projection) notifyReset() {
	p.obsMu.RLock()
	obs := make([]Observer, len(p.observers))
	copy(obs, p.observers)
	p.obsMu.RUnlock()

	for _, o := range obs {
		o.ModelReset(p.name)
	}
}
