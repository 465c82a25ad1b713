package events

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

type funcHandler struct {
	id        string
	eventType string
	fn        Handler
}

// EventBus delivers events synchronously, in subscription order, on the
// publishing goroutine. Handlers run outside the bus lock so they may
// publish or unsubscribe themselves.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	handlers    []funcHandler
	nextID      int
	logger      zerolog.Logger
}

// NewEventBus creates an empty bus
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		logger: logger.With().Str("component", "EventBus").Logger(),
	}
}

// Subscribe adds s. A subscriber with the same id is replaced.
func (eb *EventBus) Subscribe(s Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers = slices.DeleteFunc(eb.subscribers, func(old Subscriber) bool {
		return old.ID() == s.ID()
	})
	eb.subscribers = append(eb.subscribers, s)
	eb.logger.Debug().Str("subscriber_id", s.ID()).Msg("Subscriber added")
}

// SubscribeFunc registers fn for one event type and returns an id that
// Unsubscribe accepts.
func (eb *EventBus) SubscribeFunc(eventType string, fn Handler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := fmt.Sprintf("%s#%d", eventType, eb.nextID)
	eb.handlers = append(eb.handlers, funcHandler{id: id, eventType: eventType, fn: fn})
	return id
}

// Unsubscribe removes the subscriber or function handler with id
func (eb *EventBus) Unsubscribe(id string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers = slices.DeleteFunc(eb.subscribers, func(s Subscriber) bool { return s.ID() == id })
	eb.handlers = slices.DeleteFunc(eb.handlers, func(h funcHandler) bool { return h.id == id })
}

// Publish hands event to every interested subscriber, then to the function
// handlers of its type. A panicking receiver is logged and skipped.
func (eb *EventBus) Publish(event Event) {
	eventType := event.Type()

	eb.mu.RLock()
	subscribers := make([]Subscriber, 0, len(eb.subscribers))
	for _, s := range eb.subscribers {
		if s.InterestedIn(eventType) {
			subscribers = append(subscribers, s)
		}
	}
	var handlers []funcHandler
	for _, h := range eb.handlers {
		if h.eventType == eventType {
			handlers = append(handlers, h)
		}
	}
	eb.mu.RUnlock()

	for _, s := range subscribers {
		eb.deliver(s.ID(), eventType, func() { s.HandleEvent(event) })
	}
	for _, h := range handlers {
		eb.deliver(h.id, eventType, func() { h.fn(event) })
	}
}

func (eb *EventBus) deliver(receiver, eventType string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error().
				Str("receiver", receiver).
				Str("event_type", eventType).
				Interface("panic", r).
				Msg("Event receiver panicked")
		}
	}()
	fn()
}

// SubscriberCount returns the number of subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// HandlerCount returns the number of function handlers for eventType
func (eb *EventBus) HandlerCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	n := 0
	for _, h := range eb.handlers {
		if h.eventType == eventType {
			n++
		}
	}
	return n
}
