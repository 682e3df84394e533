package usecase

import (
	"context"
	"testing"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/infra/memstore"
	"github.com/runoshun/maestro/internal/testutil"
	"github.com/runoshun/maestro/internal/usecase/shared"
	"github.com/stretchr/testify/require"
)

// fixture wires every use case against an in-memory store.
type fixture struct {
	store     *memstore.Store
	bus       *event.Bus
	rec       *testutil.EventRecorder
	clock     *testutil.MockClock
	ids       *testutil.SequentialIDs
	logger    *testutil.MockLogger
	linker    *shared.Linker
	queueSync *shared.QueueSync
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	bus := event.NewBus(nil)
	clock := testutil.NewMockClock()
	ids := testutil.NewSequentialIDs()
	logger := &testutil.MockLogger{}
	f := &fixture{
		store:  store,
		bus:    bus,
		rec:    testutil.NewEventRecorder(bus),
		clock:  clock,
		ids:    ids,
		logger: logger,
		linker: shared.NewLinker(store.Tasks, store.Sessions, bus, clock, ids, logger),
	}
	f.queueSync = shared.NewQueueSync(store.Queues, store.Sessions, shared.NewReporter(store.Tasks, bus, clock), clock, ids, logger)
	return f
}

func (f *fixture) createProject(t *testing.T) *domain.Project {
	t.Helper()
	out, err := NewCreateProject(f.store.Projects, f.bus, f.ids, f.clock).
		Execute(context.Background(), CreateProjectInput{Name: "demo", WorkingDir: "/work/demo"})
	require.NoError(t, err)
	return out.Project
}

func (f *fixture) createTask(t *testing.T, projectID, title string) *domain.Task {
	t.Helper()
	out, err := f.newCreateTask().Execute(context.Background(), CreateTaskInput{ProjectID: projectID, Title: title})
	require.NoError(t, err)
	return out.Task
}

func (f *fixture) createSession(t *testing.T, in CreateSessionInput) *domain.Session {
	t.Helper()
	out, err := f.newCreateSession().Execute(context.Background(), in)
	require.NoError(t, err)
	return out.Session
}

func (f *fixture) task(t *testing.T, id string) *domain.Task {
	t.Helper()
	task, err := f.store.Tasks.Get(id)
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

func (f *fixture) session(t *testing.T, id string) *domain.Session {
	t.Helper()
	session, err := f.store.Sessions.Get(id)
	require.NoError(t, err)
	require.NotNil(t, session)
	return session
}

func (f *fixture) newCreateTask() *CreateTask {
	return NewCreateTask(f.store.Projects, f.store.Tasks, f.bus, f.ids, f.clock, f.logger)
}

func (f *fixture) newUpdateTask() *UpdateTask {
	return NewUpdateTask(f.store.Tasks, f.store.Sessions, f.bus, f.clock, f.logger)
}

func (f *fixture) newDeleteTask() *DeleteTask {
	return NewDeleteTask(f.store.Tasks, f.linker, f.queueSync, f.bus, f.clock, f.logger)
}

func (f *fixture) newCreateSession() *CreateSession {
	return NewCreateSession(f.store.Projects, f.store.Tasks, f.store.Queues, f.linker, f.bus, f.ids, f.clock, f.logger)
}

func (f *fixture) newUpdateSession() *UpdateSession {
	return NewUpdateSession(f.store.Sessions, f.queueSync, f.bus, f.ids, f.clock, f.logger)
}

func (f *fixture) newDeleteSession() *DeleteSession {
	return NewDeleteSession(f.store.Sessions, f.linker, f.queueSync, f.bus, f.logger)
}

func (f *fixture) newHandleHook() *HandleHook {
	return NewHandleHook(f.store.Sessions, f.queueSync, f.bus, f.ids, f.clock, f.logger)
}

func (f *fixture) newClaim() *ClaimQueueItem {
	return NewClaimQueueItem(f.store.Queues, f.store.Sessions, f.store.Tasks, f.queueSync, f.bus, f.clock, f.logger)
}

func (f *fixture) newComplete() *CompleteQueueItem {
	return NewCompleteQueueItem(f.store.Queues, f.store.Sessions, f.queueSync, f.bus, f.clock, f.logger)
}

func (f *fixture) newFail() *FailQueueItem {
	return NewFailQueueItem(f.store.Queues, f.store.Sessions, f.queueSync, f.bus, f.clock, f.logger)
}

func (f *fixture) newSkip() *SkipQueueItem {
	return NewSkipQueueItem(f.store.Queues, f.store.Sessions, f.queueSync, f.bus, f.clock, f.logger)
}

func (f *fixture) newPush() *PushQueueItem {
	return NewPushQueueItem(f.store.Queues, f.store.Sessions, f.linker, f.queueSync, f.bus, f.clock, f.logger)
}

func (f *fixture) newSpawn() *SpawnSession {
	spawn := domain.SpawnConfig{Command: "claude", Args: []string{"--print"}}
	return NewSpawnSession(f.store.Projects, f.newCreateSession(), f.bus, spawn, "http://127.0.0.1:3000", f.logger)
}

func ptr[T any](v T) *T {
	return &v
}
