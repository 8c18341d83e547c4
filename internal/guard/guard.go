// Package guard marks conversations that have a model call in flight.
//
// The guard is advisory and in-process only. A busy conversation rejects
// new work instead of queueing it.
package guard

import "sync"

type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func New() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// TryAcquire marks id busy. It returns false if id was already busy.
func (g *Guard) TryAcquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.active[id]; ok {
		return false
	}
	g.active[id] = struct{}{}
	return true
}

// Release clears id. Releasing an idle id is a no-op.
func (g *Guard) Release(id string) {
	g.mu.Lock()
	delete(g.active, id)
	g.mu.Unlock()
}

func (g *Guard) Busy(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[id]
	return ok
}

// Len returns the number of busy conversations.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
