package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Bus delivers scheduler events to subscribers in the order they subscribed.
// A subscriber may restrict itself to a set of event types.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id      int
	types   map[string]struct{}
	handler EventHandler
}

func (s subscription) wants(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// NewBus creates a Bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler for the given event types, or for every type
// when none are given. The returned function removes the subscription.
func (b *Bus) Subscribe(handler EventHandler, types ...string) (unsubscribe func()) {
	sub := subscription{handler: handler}
	if len(types) > 0 {
		sub.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sub.id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// EmitEvent hands event to every matching subscriber. A failing subscriber
// does not stop delivery; all failures are joined into the returned error.
func (b *Bus) EmitEvent(ctx context.Context, event *Event) error {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if !s.wants(event.Type) {
			continue
		}
		if err := s.handler.HandleEvent(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("subscriber %d failed on %s: %w", s.id, event.Type, err))
		}
	}

	return errors.Join(errs...)
}

var _ EventEmitter = (*Bus)(nil)
