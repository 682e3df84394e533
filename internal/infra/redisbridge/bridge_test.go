package redisbridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBridge(t *testing.T) (*Bridge, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	bridge, err := New(&redis.Options{Addr: mr.Addr()}, "maestro:test", testutil.NewMockClock(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bridge.Close() })
	return bridge, mr
}

func receive(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case msg, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return Message{}
	}
}

func TestNew_RejectsEmptyChannel(t *testing.T) {
	_, err := New(&redis.Options{Addr: "localhost:6379"}, "", testutil.NewMockClock(), nil)

	assert.ErrorContains(t, err, "channel cannot be empty")
}

func TestBridge_Ping(t *testing.T) {
	bridge, _ := setupBridge(t)

	assert.NoError(t, bridge.Ping(context.Background()))
}

func TestBridge_RelaysBusEvents(t *testing.T) {
	bridge, _ := setupBridge(t)
	ctx := context.Background()
	bus := event.NewBus(nil)
	detach := bridge.Attach(bus)
	defer detach()

	sub, err := bridge.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	event.Publish(ctx, bus, event.TaskUpdated, domain.Task{ID: "task_1", Title: "write docs", Status: domain.TaskStatusTodo})

	msg := receive(t, sub)
	assert.Equal(t, event.TaskUpdated.Name(), msg.Event)
	assert.Equal(t, testutil.NewMockClock().Now(), msg.Timestamp.UTC())
	var task domain.Task
	require.NoError(t, json.Unmarshal(msg.Payload, &task))
	assert.Equal(t, "task_1", task.ID)
	assert.Equal(t, "write docs", task.Title)
}

func TestBridge_MultipleSubscribers(t *testing.T) {
	bridge, _ := setupBridge(t)
	ctx := context.Background()

	sub1, err := bridge.Subscribe(ctx)
	require.NoError(t, err)
	defer sub1.Close()
	sub2, err := bridge.Subscribe(ctx)
	require.NoError(t, err)
	defer sub2.Close()

	require.NoError(t, bridge.Publish(ctx, event.Envelope{Name: "session:deleted", Payload: domain.DeletedPayload{ID: "sess_1"}}))

	assert.Equal(t, event.Name("session:deleted"), receive(t, sub1).Event)
	assert.Equal(t, event.Name("session:deleted"), receive(t, sub2).Event)
}

func TestBridge_DetachStopsRelay(t *testing.T) {
	bridge, _ := setupBridge(t)
	bus := event.NewBus(nil)
	detach := bridge.Attach(bus)

	detach()

	assert.Zero(t, bus.SubscriberCount(event.TaskCreated.Name()))
}

func TestBridge_BadMessageGoesToErrors(t *testing.T) {
	bridge, mr := setupBridge(t)
	ctx := context.Background()
	sub, err := bridge.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish("maestro:test", "not json")

	select {
	case err := <-sub.Errors():
		assert.ErrorContains(t, err, "decode event message")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for decode error")
	}
}

func TestBridge_PublishFailsWhenRedisDown(t *testing.T) {
	bridge, mr := setupBridge(t)
	mr.Close()

	err := bridge.Publish(context.Background(), event.Envelope{Name: "task:created", Payload: domain.Task{ID: "task_1"}})

	assert.ErrorContains(t, err, "publish task:created")
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	bridge, _ := setupBridge(t)
	sub, err := bridge.Subscribe(context.Background())
	require.NoError(t, err)

	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestOptions(t *testing.T) {
	opts := Options(domain.RedisConfig{Addr: "redis:6379", Password: "pw", DB: 2})

	assert.Equal(t, "redis:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}
