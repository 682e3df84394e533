// Package redisbridge relays the event feed onto a Redis pub/sub channel so
// that observers outside the server process (dashboards, other servers,
// `maestro events`) can follow it.
//
// Delivery is at-most-once, matching Redis pub/sub: a subscriber that is not
// connected when an event is published misses it and should re-fetch state.
package redisbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
)

// Message is the wire form of one event on the channel.
type Message struct {
	Timestamp time.Time       `json:"timestamp"`
	Event     event.Name      `json:"event"`
	Payload   json.RawMessage `json:"payload"`
}

// Bridge publishes bus events to a Redis channel.
// Fields are ordered to minimize memory padding.
type Bridge struct {
	rdb     *redis.Client
	clock   domain.Clock
	logger  domain.Logger
	channel string
}

// New creates a Bridge on channel. logger may be nil.
func New(opts *redis.Options, channel string, clock domain.Clock, logger domain.Logger) (*Bridge, error) {
	if channel == "" {
		return nil, errors.New("channel cannot be empty")
	}
	return &Bridge{
		rdb:     redis.NewClient(opts),
		channel: channel,
		clock:   clock,
		logger:  logger,
	}, nil
}

// Options converts the [redis] config section into client options.
func Options(cfg domain.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Ping verifies Redis connectivity.
func (b *Bridge) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (b *Bridge) Close() error {
	return b.rdb.Close()
}

// Attach relays every event published on bus until the returned function
// is called. A failed publish is returned to the bus, which logs it.
func (b *Bridge) Attach(bus *event.Bus) func() {
	return event.SubscribeAll(bus, "redis-bridge", func(ctx context.Context, env event.Envelope) error {
		return b.Publish(ctx, env)
	})
}

// Publish writes one envelope to the channel.
func (b *Bridge) Publish(ctx context.Context, env event.Envelope) error {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", env.Name, err)
	}
	msg, err := json.Marshal(Message{Event: env.Name, Payload: payload, Timestamp: b.clock.Now()})
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", env.Name, err)
	}
	if err := b.rdb.Publish(ctx, b.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", env.Name, err)
	}
	if b.logger != nil {
		b.logger.Debug("", "event", fmt.Sprintf("relayed %s to %s", env.Name, b.channel))
	}
	return nil
}

// Subscription is an active subscription to the channel.
// Caller must call Close() when done.
type Subscription struct {
	events <-chan Message
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of received messages. It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan Message {
	return s.events
}

// Errors returns decode failures. The subscription continues after errors.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe starts receiving messages. It returns once Redis has confirmed
// the subscription, so events published afterwards are not missed.
func (b *Bridge) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	eventsChan := make(chan Message, 16)
	errorsChan := make(chan error, 16)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					select {
					case errorsChan <- fmt.Errorf("decode event message: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}
				select {
				case eventsChan <- msg:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: eventsChan, errors: errorsChan, cancel: cancel}, nil
}
