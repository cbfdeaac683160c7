package notify

import (
	"sync"
	"sync/atomic"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
)

type EventKind string

const (
	EventAlertCreated      EventKind = "alert_created"
	EventAlertAcknowledged EventKind = "alert_acknowledged"
	EventAlertResolved     EventKind = "alert_resolved"
)

// Event is one user-facing notification, pushed to stream subscribers
// the way the dashboard surfaces toasts.
type Event struct {
	Kind    EventKind             `json:"kind"`
	Message string                `json:"message"`
	Alert   *models.GeofenceAlert `json:"alert,omitempty"`
}

type Broadcaster struct {
	subscribers map[uint64]chan Event
	nextID      atomic.Uint64
	mu          sync.RWMutex
	closed      bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan Event),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, 64) // Buffer for a burst of sweep alerts

	b.mu.Lock()
	if b.closed {
		// Late subscribers during shutdown get a closed channel so
		// their streams exit immediately.
		b.mu.Unlock()
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
