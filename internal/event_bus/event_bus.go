package event_bus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type EventType string

// Event carries a payload together with the context of the operation that produced it.
type Event struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      any
}

func NewEvent(ctx context.Context, eventType EventType, data any) Event {
	return NewEventAt(ctx, eventType, data, time.Now())
}

// NewEventAt stamps the event with the time of an injected clock.
func NewEventAt(ctx context.Context, eventType EventType, data any, timestamp time.Time) Event {
	return Event{ctx: ctx, Type: eventType, Timestamp: timestamp, Data: data}
}

func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// EventT is the view of an Event handed to SubscribeTyped handlers.
type EventT[T any] struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      T
}

func (e EventT[T]) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

type subscription struct {
	id      uint64
	handler func(Event) error
}

// EventBus delivers events synchronously, in subscription order, on the publisher's goroutine.
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[EventType][]subscription
	lastId        uint64
}

func NewEventBus() *EventBus {
	return &EventBus{subscriptions: make(map[EventType][]subscription)}
}

func (eb *EventBus) Subscribe(eventType EventType, handler func(Event) error) (unsubscribe func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.lastId++
	id := eb.lastId
	eb.subscriptions[eventType] = append(eb.subscriptions[eventType], subscription{id: id, handler: handler})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		remaining := slices.DeleteFunc(eb.subscriptions[eventType], func(s subscription) bool { return s.id == id })
		if len(remaining) == 0 {
			delete(eb.subscriptions, eventType)
			return
		}
		eb.subscriptions[eventType] = remaining
	}
}

// SubscribeTyped registers a handler for events whose payload is a T. Events with another
// payload type are ignored by it.
func SubscribeTyped[T any](eb *EventBus, eventType EventType, handler func(EventT[T]) error) (unsubscribe func()) {
	return eb.Subscribe(eventType, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			log.Debugf("skipping %s handler: expected %T payload, got %T", eventType, *new(T), e.Data)
			return nil
		}
		return handler(EventT[T]{ctx: e.ctx, Type: e.Type, Timestamp: e.Timestamp, Data: payload})
	})
}

// Publish runs every handler of the event type. A failing or panicking handler does not stop
// the others; their errors are joined. Delivery stops once the event context is done.
func (eb *EventBus) Publish(e Event) error {
	ctx := e.Context()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("event %s not published: %w", e.Type, err)
	}

	eb.mu.RLock()
	subscriptions := slices.Clone(eb.subscriptions[e.Type])
	eb.mu.RUnlock()

	var errs []error
	for _, s := range subscriptions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("event %s interrupted: %w", e.Type, err))
			break
		}
		if err := deliver(s, e); err != nil {
			log.Errorf("handler %d failed on %s: %v", s.id, e.Type, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func deliver(s subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %d panicked on %s: %v", s.id, e.Type, r)
		}
	}()
	return s.handler(e)
}
