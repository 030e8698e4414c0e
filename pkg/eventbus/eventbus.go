package eventbus

import (
	"sync"

	"github.com/gasgate-labs/gasgate-backend/pkg/events"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
)

// EventHandler is a function that handles an event
type EventHandler func(event events.Event)

// EventBus manages event subscriptions and publications. Handlers run
// asynchronously; a panicking handler never takes down the publisher.
type EventBus struct {
	handlers map[events.EventType][]EventHandler
	logger   logging.Logger
	mu       sync.RWMutex
}

// New creates a new EventBus
func New(logger logging.Logger) *EventBus {
	if logger == nil {
		logger = &logging.NoopLogger{}
	}
	return &EventBus{
		handlers: make(map[events.EventType][]EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for a specific event type
func (eb *EventBus) Subscribe(eventType events.EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("Subscribed to event type", "event_type", eventType)
}

// Publish sends an event to all subscribed handlers
func (eb *EventBus) Publish(event events.Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if handlers, exists := eb.handlers[event.Type]; exists {
		for _, handler := range handlers {
			go func(h EventHandler) {
				defer func() {
					if r := recover(); r != nil {
						eb.logger.Errorf("Recovered from panic in event handler: %v", r)
					}
				}()
				h(event)
			}(handler)
		}
	}
}
