package event_bus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type EventType string

// Event is the envelope passed to subscribers. The context carries the publishing request's
// values (current user).
type Event struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      any
}

func NewEvent(ctx context.Context, eventType EventType, data any) Event {
	return Event{
		ctx:       ctx,
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// EventT is the typed view of an Event handed to SubscribeTyped handlers.
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

// EventBus dispatches events synchronously, in subscription order, on the publisher's goroutine.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType]map[uint64]func(Event) error
	nextID      uint64
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType]map[uint64]func(Event) error),
	}
}

// Subscribe registers h for eventType and returns a function removing it again.
func (eb *EventBus) Subscribe(eventType EventType, h func(Event) error) (unsubscribe func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	if eb.subscribers[eventType] == nil {
		eb.subscribers[eventType] = make(map[uint64]func(Event) error)
	}
	eb.subscribers[eventType][id] = h

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		delete(eb.subscribers[eventType], id)
		if len(eb.subscribers[eventType]) == 0 {
			delete(eb.subscribers, eventType)
		}
	}
}

// SubscribeTyped registers a handler that only sees events whose payload is a T.
// Events carrying another payload type are skipped.
func SubscribeTyped[T any](eb *EventBus, eventType EventType, h func(EventT[T]) error) (unsubscribe func()) {
	return eb.Subscribe(eventType, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			log.Debugf("event bus: skipping %s, expected %T payload, got %T", eventType, *new(T), e.Data)
			return nil
		}
		return h(EventT[T]{ctx: e.ctx, Type: e.Type, Timestamp: e.Timestamp, Data: payload})
	})
}

// Publish runs every handler subscribed to e.Type. A failing or panicking handler does not stop
// the others; all failures are joined into the returned error.
func (eb *EventBus) Publish(e Event) error {
	if err := e.Context().Err(); err != nil {
		return fmt.Errorf("event %s: context cancelled before publish: %w", e.Type, err)
	}

	eb.mu.RLock()
	subs := make([]subscription, 0, len(eb.subscribers[e.Type]))
	for id, h := range eb.subscribers[e.Type] {
		subs = append(subs, subscription{id: id, handler: h})
	}
	eb.mu.RUnlock()
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })

	var errs []error
	for _, sub := range subs {
		if err := e.Context().Err(); err != nil {
			errs = append(errs, fmt.Errorf("context cancelled during event processing: %w", err))
			break
		}
		if err := invoke(sub, e); err != nil {
			log.Errorf("event bus: handler %d failed for %s: %v", sub.id, e.Type, err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("event %s: %d handler(s) failed: %w", e.Type, len(errs), errors.Join(errs...))
	}
	return nil
}

func invoke(sub subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic (ID %d) for event %s: %v", sub.id, e.Type, r)
		}
	}()
	return sub.handler(e)
}
