package event_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_DeliversTypedPayload(t *testing.T) {
	bus := event.NewBus(nil)

	var got domain.TaskSessionPayload
	event.Subscribe(bus, event.TaskSessionAdded, "test", func(_ context.Context, p domain.TaskSessionPayload) error {
		got = p
		return nil
	})

	event.Publish(context.Background(), bus, event.TaskSessionAdded, domain.TaskSessionPayload{TaskID: "t1", SessionID: "s1"})

	assert.Equal(t, domain.TaskSessionPayload{TaskID: "t1", SessionID: "s1"}, got)
}

func TestPublish_OnlyMatchingTopic(t *testing.T) {
	bus := event.NewBus(nil)

	var calls atomic.Int32
	event.Subscribe(bus, event.TaskCreated, "test", func(context.Context, domain.Task) error {
		calls.Add(1)
		return nil
	})

	event.Publish(context.Background(), bus, event.TaskUpdated, domain.Task{ID: "t1"})
	assert.Equal(t, int32(0), calls.Load())

	event.Publish(context.Background(), bus, event.TaskCreated, domain.Task{ID: "t1"})
	assert.Equal(t, int32(1), calls.Load())
}

func TestPublish_FailingSubscriberIsIsolated(t *testing.T) {
	logger := &testutil.MockLogger{}
	bus := event.NewBus(logger)

	var delivered atomic.Int32
	event.Subscribe(bus, event.ProjectDeleted, "broken", func(context.Context, domain.DeletedPayload) error {
		return errors.New("boom")
	})
	event.Subscribe(bus, event.ProjectDeleted, "panicky", func(context.Context, domain.DeletedPayload) error {
		panic("kaboom")
	})
	event.Subscribe(bus, event.ProjectDeleted, "healthy", func(context.Context, domain.DeletedPayload) error {
		delivered.Add(1)
		return nil
	})

	require.NotPanics(t, func() {
		event.Publish(context.Background(), bus, event.ProjectDeleted, domain.DeletedPayload{ID: "p1"})
	})

	assert.Equal(t, int32(1), delivered.Load())
	assert.Len(t, logger.Find("error", "event"), 2)
}

func TestPublish_FansOutConcurrentlyAndWaits(t *testing.T) {
	bus := event.NewBus(nil)

	// Both handlers block until the other has started; a sequential
	// dispatcher would deadlock here.
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var finished atomic.Int32
	handler := func(context.Context, domain.Session) error {
		started <- struct{}{}
		<-release
		finished.Add(1)
		return nil
	}
	event.Subscribe(bus, event.SessionUpdated, "a", handler)
	event.Subscribe(bus, event.SessionUpdated, "b", handler)

	done := make(chan struct{})
	go func() {
		event.Publish(context.Background(), bus, event.SessionUpdated, domain.Session{ID: "s1"})
		close(done)
	}()

	for range 2 {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("subscribers were not started concurrently")
		}
	}

	select {
	case <-done:
		t.Fatal("Publish returned before subscribers settled")
	default:
	}

	close(release)
	<-done
	assert.Equal(t, int32(2), finished.Load())
}

func TestSubscribeAll_ReceivesEveryTopic(t *testing.T) {
	bus := event.NewBus(nil)
	rec := testutil.NewEventRecorder(bus)

	ctx := context.Background()
	event.Publish(ctx, bus, event.ProjectCreated, domain.Project{ID: "p1"})
	event.Publish(ctx, bus, event.SessionDeleted, domain.DeletedPayload{ID: "s1"})

	assert.Equal(t, []event.Name{"project:created", "session:deleted"}, rec.Names())
}

func TestUnsubscribe(t *testing.T) {
	bus := event.NewBus(nil)

	var calls atomic.Int32
	unsubscribe := event.Subscribe(bus, event.TaskDeleted, "test", func(context.Context, domain.DeletedPayload) error {
		calls.Add(1)
		return nil
	})
	assert.Equal(t, 1, bus.SubscriberCount(event.TaskDeleted.Name()))

	unsubscribe()
	unsubscribe() // idempotent

	event.Publish(context.Background(), bus, event.TaskDeleted, domain.DeletedPayload{ID: "t1"})
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, bus.SubscriberCount(event.TaskDeleted.Name()))
}

func TestPublish_NilBus(t *testing.T) {
	assert.NotPanics(t, func() {
		event.Publish(context.Background(), nil, event.TaskDeleted, domain.DeletedPayload{ID: "t1"})
	})
}

func TestNames_UniqueCatalog(t *testing.T) {
	seen := make(map[event.Name]bool)
	for _, n := range event.Names() {
		assert.False(t, seen[n], "duplicate event name %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, 14)
}
