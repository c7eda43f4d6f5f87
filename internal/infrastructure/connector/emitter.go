package connector

import (
	"sync"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

// emitter is the listener registry embedded by connectors. It exposes On and RemoveListener only;
// connectors that want Off declare it themselves, the others get it from the factory shim.
type emitter struct {
	mu        sync.Mutex
	listeners map[entity.ConnectorEventName][]*port.Listener
}

func (e *emitter) On(event entity.ConnectorEventName, l *port.Listener) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[entity.ConnectorEventName][]*port.Listener)
	}
	e.listeners[event] = append(e.listeners[event], l)
}

func (e *emitter) RemoveListener(event entity.ConnectorEventName, l *port.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	current := e.listeners[event]
	kept := make([]*port.Listener, 0, len(current))
	for _, existing := range current {
		if existing != l {
			kept = append(kept, existing)
		}
	}
	e.listeners[event] = kept
}

func (e *emitter) removeAllListeners() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = nil
}

func (e *emitter) listenerCount(event entity.ConnectorEventName) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

// emit delivers ev outside the registry lock so listeners may detach themselves.
func (e *emitter) emit(ev entity.ConnectorEvent) {
	e.mu.Lock()
	ls := append([]*port.Listener(nil), e.listeners[ev.Name]...)
	e.mu.Unlock()
	for _, l := range ls {
		l.Handle(ev)
	}
}
