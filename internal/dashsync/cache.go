package dashsync

import (
	"slices"
	"sync"
)

// Cache holds the last known dashboard. Readers always get a private copy.
//
// The visible snapshot is the confirmed base with every in-flight mutation
// replayed on top, in the order they began. Rolling one back removes it from
// the replay, so overlapping mutations never leak into each other and a
// server snapshot installed mid-flight is kept.
type Cache struct {
	mu      sync.RWMutex
	base    Snapshot
	pending []*PendingMutation
	snap    Snapshot
	loaded  bool
	seq     uint64
}

func NewCache() *Cache {
	return &Cache{}
}

// Snapshot returns a deep copy and whether anything has been loaded yet.
func (c *Cache) Snapshot() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Clone(), c.loaded
}

// Replace installs server truth. In-flight mutations stay applied on top
// until they are committed or rolled back.
func (c *Cache) Replace(s Snapshot) {
	c.mu.Lock()
	c.base = s.Clone()
	c.loaded = true
	c.rebuild()
	c.mu.Unlock()
}

// Mutate applies fn to the confirmed state and returns the visible result.
func (c *Cache) Mutate(fn func(Snapshot) Snapshot) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = fn(c.base.Clone())
	c.rebuild()
	return c.snap.Clone()
}

// PendingMutation is an optimistic change that has been applied locally but
// not yet confirmed by the server.
type PendingMutation struct {
	// Previous is the visible snapshot at the moment Apply ran.
	Previous Snapshot
	Apply    func(Snapshot) Snapshot

	id uint64
}

// Begin captures the current snapshot and applies fn under one lock.
func (c *Cache) Begin(apply func(Snapshot) Snapshot) *PendingMutation {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	m := &PendingMutation{
		Previous: c.snap.Clone(),
		Apply:    apply,
		id:       c.seq,
	}
	c.pending = append(c.pending, m)
	c.snap = apply(c.snap.Clone())
	return m
}

// Rollback drops a pending mutation and replays the ones still in flight.
// With nothing else in flight and no server snapshot installed since Begin,
// the result is exactly m.Previous.
func (c *Cache) Rollback(m *PendingMutation) {
	c.settle(m, false)
}

// Commit folds a confirmed mutation into the base so it survives until the
// next server snapshot replaces it.
func (c *Cache) Commit(m *PendingMutation) {
	c.settle(m, true)
}

func (c *Cache) settle(m *PendingMutation, keep bool) {
	if m == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.pending, func(p *PendingMutation) bool { return p.id == m.id })
	if i < 0 {
		return
	}
	c.pending = slices.Delete(c.pending, i, i+1)
	if keep {
		c.base = m.Apply(c.base.Clone())
	}
	c.rebuild()
}

// rebuild requires c.mu held for writing.
func (c *Cache) rebuild() {
	snap := c.base.Clone()
	for _, p := range c.pending {
		snap = p.Apply(snap)
	}
	c.snap = snap
}
