package application

import "sync"

// GroupLocks serializes operations targeting the same group. Scheduling and
// mutation operations interleave reads and writes of the group cursor and
// rotation list, so every such operation holds the group's lock from first
// read to final persist. Operations on distinct groups proceed in parallel.
type GroupLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGroupLocks constructs an empty lock registry.
func NewGroupLocks() *GroupLocks {
	return &GroupLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire blocks until the group's lock is held and returns the release
// function. Locks are created on first use and kept for the registry's
// lifetime; the group population is small and long-lived.
func (g *GroupLocks) Acquire(groupID string) func() {
	if g == nil {
		return func() {}
	}

	g.mu.Lock()
	lock, ok := g.locks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[groupID] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
