// Package event is a minimal named publish/subscribe mechanism.
package event

import "sync"

// Handler receives the payload of an emitted event.
type Handler func(payload interface{})

// Emitter registers handlers by event name and emits payloads to them.
type Emitter interface {
	On(name string, h Handler)
	Emit(name string, payload interface{})
}

type emitter struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// New returns an Emitter. Handlers run synchronously on the goroutine that
// calls Emit, in registration order.
func New() Emitter {
	return &emitter{handlers: make(map[string][]Handler)}
}

func (e *emitter) On(name string, h Handler) {
	if h == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = append(e.handlers[name], h)
}

func (e *emitter) Emit(name string, payload interface{}) {
	e.mu.RLock()
	handlers := append([]Handler(nil), e.handlers[name]...)
	e.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}
