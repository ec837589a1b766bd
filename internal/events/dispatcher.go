package events

import (
	"context"
	"sync"
)

// EventHandler reacts to a single published event. A handler error never
// aborts delivery to the remaining subscribers.
type EventHandler func(context.Context, Event) error

// Dispatcher decouples the services that emit lifecycle events from the
// side effects (notifications, and whatever comes later) that consume them.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher delivers events synchronously, in subscription order,
// on the publisher's goroutine.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

// NewInMemoryDispatcher builds an empty in-process dispatcher.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
	}
}

// Publish fans the event out to every subscriber of its type. Delivery is
// best-effort: a failing handler is skipped and the rest still run.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

// Subscribe adds a handler for one event type. Handlers registered after a
// Publish only see later events.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
