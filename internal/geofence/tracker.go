package geofence

import (
	"sync"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
)

// tracker remembers the last known containment state per entity for
// the lifetime of a monitoring session. Keys are never removed: an
// entity that stops reporting keeps its last state, so a brief gap in
// position data cannot fabricate a transition when it comes back.
type tracker struct {
	mu     sync.Mutex
	states map[models.EntityKey]bool
}

func newTracker() *tracker {
	return &tracker{
		states: make(map[models.EntityKey]bool),
	}
}

// lastState returns the recorded containment state for the entity.
// seen is false on the entity's first observation.
func (t *tracker) lastState(key models.EntityKey) (wasInside, seen bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasInside, seen = t.states[key]
	return wasInside, seen
}

func (t *tracker) setState(key models.EntityKey, inside bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[key] = inside
}

func (t *tracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}
