// Package event provides the typed publish/subscribe bus every use case
// announces its state changes on.
//
// Each Topic has exactly one payload type, checked at compile time on both
// the Publish and Subscribe sides. Publish fans a payload out to all current
// subscribers concurrently and returns once every handler has settled.
// Handler errors and panics are logged and never reach the publisher: by the
// time an event is published the triggering write has already committed.
// The bus keeps no history; observers that reconnect re-fetch state.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/runoshun/maestro/internal/domain"
)

// Name identifies an event kind on the feed, e.g. "task:updated".
type Name string

// Topic binds an event name to its payload type.
type Topic[T any] struct {
	name Name
}

// Name returns the wire name of the topic.
func (t Topic[T]) Name() Name {
	return t.name
}

// Envelope is an untyped view of a published event, used by subscribers
// that relay the whole feed (transport bridges, recorders).
type Envelope struct {
	Payload any
	Name    Name
}

// Handler receives one payload of a topic.
type Handler[T any] func(ctx context.Context, payload T) error

type subscriber struct {
	fn    func(context.Context, Envelope) error
	label string
	topic Name // empty = every topic
	id    uint64
}

// Bus dispatches events to subscribers.
// Fields are ordered to minimize memory padding.
type Bus struct {
	logger domain.Logger
	subs   []*subscriber
	nextID uint64
	mu     sync.RWMutex
}

// NewBus creates an empty bus. logger may be nil.
func NewBus(logger domain.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers h for topic. label names the subscriber in logs.
// The returned function removes the subscription.
func Subscribe[T any](b *Bus, topic Topic[T], label string, h Handler[T]) func() {
	return b.add(topic.name, label, func(ctx context.Context, env Envelope) error {
		payload, ok := env.Payload.(T)
		if !ok {
			return fmt.Errorf("payload type %T does not match topic %s", env.Payload, env.Name)
		}
		return h(ctx, payload)
	})
}

// SubscribeAll registers h for every topic in the catalog.
func SubscribeAll(b *Bus, label string, h func(ctx context.Context, env Envelope) error) func() {
	return b.add("", label, h)
}

// Publish delivers payload to every subscriber of topic and waits for all
// of them to settle. A nil bus drops the event.
func Publish[T any](ctx context.Context, b *Bus, topic Topic[T], payload T) {
	if b == nil {
		return
	}
	b.dispatch(ctx, Envelope{Name: topic.name, Payload: payload})
}

// SubscriberCount returns how many subscribers would receive name.
func (b *Bus) SubscriberCount(name Name) int {
	return len(b.snapshot(name))
}

func (b *Bus) add(topic Name, label string, fn func(context.Context, Envelope) error) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, &subscriber{id: id, label: label, topic: topic, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) snapshot(name Name) []*subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*subscriber
	for _, s := range b.subs {
		if s.topic == "" || s.topic == name {
			out = append(out, s)
		}
	}
	return out
}

func (b *Bus) dispatch(ctx context.Context, env Envelope) {
	subs := b.snapshot(env.Name)
	if len(subs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Go(func() {
			b.deliver(ctx, s, env)
		})
	}
	wg.Wait()
}

func (b *Bus) deliver(ctx context.Context, s *subscriber, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logf("subscriber %q panicked on %s: %v", s.label, env.Name, r)
		}
	}()
	if err := s.fn(ctx, env); err != nil {
		b.logf("subscriber %q failed on %s: %v", s.label, env.Name, err)
	}
}

func (b *Bus) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Error("", "event", fmt.Sprintf(format, args...))
	}
}
