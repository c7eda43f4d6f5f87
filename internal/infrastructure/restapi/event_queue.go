package restapi

import (
	"sync"

	"wallet_connector/internal/domain/entity"
)

// eventQueue buffers events for one stream client. A newer stateChanged replaces any pending one,
// so a slow client always ends on the latest state. Other events are kept up to limit.
type eventQueue struct {
	mu      sync.Mutex
	pending []entity.ConnectionEvent
	limit   int
	ready   chan struct{}
}

func newEventQueue(limit int) *eventQueue {
	return &eventQueue{limit: limit, ready: make(chan struct{}, 1)}
}

// push adds ev and reports whether an older event had to be discarded.
func (q *eventQueue) push(ev entity.ConnectionEvent) (dropped bool) {
	q.mu.Lock()
	if ev.Type == entity.EventStateChanged {
		q.removeLocked(func(p entity.ConnectionEvent) bool { return p.Type == entity.EventStateChanged })
	}
	if len(q.pending) >= q.limit {
		// самое старое событие, кроме состояния
		dropped = q.removeLocked(func(p entity.ConnectionEvent) bool { return p.Type != entity.EventStateChanged })
	}
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return dropped
}

// drain returns the pending events in order and empties the queue.
func (q *eventQueue) drain() []entity.ConnectionEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// removeLocked removes the first pending event matching fn.
func (q *eventQueue) removeLocked(fn func(entity.ConnectionEvent) bool) bool {
	for i, p := range q.pending {
		if fn(p) {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}
