package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession_Execute_LinksTasksWithOneCreatedEvent(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	t1 := f.createTask(t, project.ID, "a")
	t2 := f.createTask(t, project.ID, "b")
	f.rec.Reset()

	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID, TaskIDs: []string{t1.ID, t2.ID, t1.ID}})

	assert.Equal(t, domain.SessionStatusSpawning, session.Status)
	assert.Equal(t, domain.RoleWorker, session.Role)
	assert.Equal(t, domain.StrategySimple, session.Strategy)
	assert.Equal(t, []string{t1.ID, t2.ID}, session.TaskIDs)
	assert.Empty(t, session.QueueID)
	assert.Len(t, session.Timeline, 2)
	for _, id := range []string{t1.ID, t2.ID} {
		assert.Equal(t, []string{session.ID}, f.task(t, id).SessionIDs)
	}
	assert.Equal(t, []event.Name{"session:created", "task:updated", "task:updated"}, f.rec.Names())
	announced, ok := f.rec.Events()[1].Payload.(domain.Task)
	require.True(t, ok)
	assert.Equal(t, []string{session.ID}, announced.SessionIDs)
}

func TestCreateSession_Execute_QueueStrategy(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	t1 := f.createTask(t, project.ID, "a")
	t2 := f.createTask(t, project.ID, "b")

	out, err := f.newCreateSession().Execute(context.Background(), CreateSessionInput{
		ProjectID: project.ID,
		Strategy:  domain.StrategyQueue,
		TaskIDs:   []string{t2.ID, t1.ID},
	})

	require.NoError(t, err)
	assert.Equal(t, out.Session.ID, out.Session.QueueID)
	require.NotNil(t, out.Queue)
	require.Len(t, out.Queue.Items, 2)
	assert.Equal(t, t2.ID, out.Queue.Items[0].TaskID, "submission order")
	assert.Equal(t, domain.QueueItemQueued, out.Queue.Items[0].Status)
	assert.Equal(t, domain.TaskSessionStatusQueued, f.task(t, t1.ID).ReportedStatus(out.Session.ID))
}

func TestCreateSession_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      func(projectID string) CreateSessionInput
		wantErr error
	}{
		{"unknown project", func(string) CreateSessionInput { return CreateSessionInput{ProjectID: "proj_9"} }, domain.ErrProjectNotFound},
		{"unknown task", func(p string) CreateSessionInput {
			return CreateSessionInput{ProjectID: p, TaskIDs: []string{"task_9"}}
		}, domain.ErrTaskNotFound},
		{"bad role", func(p string) CreateSessionInput { return CreateSessionInput{ProjectID: p, Role: "boss"} }, domain.ErrValidation},
		{"terminal status", func(p string) CreateSessionInput {
			return CreateSessionInput{ProjectID: p, Status: domain.SessionStatusCompleted}
		}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			project := f.createProject(t)

			_, err := f.newCreateSession().Execute(context.Background(), tt.in(project.ID))

			require.ErrorIs(t, err, tt.wantErr)
			sessions, _ := f.store.Sessions.List(domain.SessionFilter{})
			assert.Empty(t, sessions)
			queues, _ := f.store.Queues.List()
			assert.Empty(t, queues)
		})
	}
}

func TestUpdateSession_Execute(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID})
	uc := f.newUpdateSession()
	ctx := context.Background()

	out, err := uc.Execute(ctx, UpdateSessionInput{SessionID: session.ID, Status: ptr(domain.SessionStatusWorking), Name: ptr("w1")})
	require.NoError(t, err)
	assert.True(t, out.StatusChanged)
	assert.Equal(t, "w1", out.Session.Name)
	last := out.Session.Timeline[len(out.Session.Timeline)-1]
	assert.Equal(t, domain.TimelineStatusChange, last.Type)
	assert.Equal(t, "spawning -> working", last.Message)

	out, err = uc.Execute(ctx, UpdateSessionInput{SessionID: session.ID, Status: ptr(domain.SessionStatusStopped)})
	require.NoError(t, err)
	require.NotNil(t, out.Session.CompletedAt)
	completed := *out.Session.CompletedAt

	_, err = uc.Execute(ctx, UpdateSessionInput{SessionID: session.ID, Status: ptr(domain.SessionStatusWorking)})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, completed, *f.session(t, session.ID).CompletedAt)
}

func TestUpdateSession_Execute_MetadataMerge(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID, Metadata: map[string]string{"a": "1", "b": "2"}})

	out, err := f.newUpdateSession().Execute(context.Background(), UpdateSessionInput{
		SessionID: session.ID,
		Metadata:  map[string]string{"b": "", "c": "3"},
	})

	require.NoError(t, err)
	assert.False(t, out.StatusChanged)
	assert.Equal(t, map[string]string{"a": "1", "c": "3"}, out.Session.Metadata)
}

func TestUpdateSession_Execute_TerminalClosesQueue(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	t1 := f.createTask(t, project.ID, "a")
	t2 := f.createTask(t, project.ID, "b")
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID, Strategy: domain.StrategyQueue, TaskIDs: []string{t1.ID, t2.ID}, Status: domain.SessionStatusWorking})
	_, err := f.newClaim().Execute(context.Background(), ClaimQueueItemInput{SessionID: session.ID})
	require.NoError(t, err)

	out, err := f.newUpdateSession().Execute(context.Background(), UpdateSessionInput{SessionID: session.ID, Status: ptr(domain.SessionStatusFailed)})

	require.NoError(t, err)
	assert.Empty(t, out.Session.QueueID)
	queue, _ := f.store.Queues.Get(session.ID)
	assert.Nil(t, queue)
	assert.Equal(t, domain.TaskSessionStatusFailed, f.task(t, t1.ID).ReportedStatus(session.ID))
	assert.Equal(t, domain.TaskSessionStatusSkipped, f.task(t, t2.ID).ReportedStatus(session.ID))
	assert.Equal(t, domain.TimelineTaskSkipped, out.Session.Timeline[len(out.Session.Timeline)-1].Type)
}

func TestDeleteSession_Execute(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	t1 := f.createTask(t, project.ID, "a")
	t2 := f.createTask(t, project.ID, "b")
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID, TaskIDs: []string{t1.ID, t2.ID}})
	f.rec.Reset()

	out, err := f.newDeleteSession().Execute(context.Background(), DeleteSessionInput{SessionID: session.ID})

	require.NoError(t, err)
	assert.Equal(t, "session closed", out.Reason)
	assert.Equal(t, []string{t1.ID, t2.ID}, out.DetachedTaskIDs)
	assert.NotContains(t, f.task(t, t1.ID).SessionIDs, session.ID)
	assert.NotContains(t, f.task(t, t2.ID).SessionIDs, session.ID)
	stored, _ := f.store.Sessions.Get(session.ID)
	assert.Nil(t, stored)
	names := f.rec.Names()
	assert.Equal(t, event.Name("session:deleted"), names[len(names)-1])
	assert.Equal(t, 2, f.rec.Count("task:session_removed"))
}

func TestDeleteSession_Execute_ReasonFollowsStatus(t *testing.T) {
	tests := []struct {
		status domain.SessionStatus
		reason string
	}{
		{domain.SessionStatusCompleted, "session completed"},
		{domain.SessionStatusFailed, "session failed"},
		{domain.SessionStatusStopped, "session closed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture(t)
			project := f.createProject(t)
			t1 := f.createTask(t, project.ID, "a")
			session := f.createSession(t, CreateSessionInput{ProjectID: project.ID, TaskIDs: []string{t1.ID}})
			_, err := f.newUpdateSession().Execute(context.Background(), UpdateSessionInput{SessionID: session.ID, Status: ptr(tt.status)})
			require.NoError(t, err)

			out, err := f.newDeleteSession().Execute(context.Background(), DeleteSessionInput{SessionID: session.ID})

			require.NoError(t, err)
			assert.Equal(t, tt.reason, out.Reason)
		})
	}
}

func TestAppendTimelineEvent_Execute(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID})
	uc := NewAppendTimelineEvent(f.store.Sessions, f.bus, f.ids, f.clock)
	f.rec.Reset()

	out, err := uc.Execute(context.Background(), AppendTimelineEventInput{SessionID: session.ID, Type: domain.TimelineMilestone, Message: "tests green"})

	require.NoError(t, err)
	assert.Equal(t, out.Event, out.Session.Timeline[len(out.Session.Timeline)-1])
	assert.Equal(t, []event.Name{"session:updated"}, f.rec.Names())

	_, err = uc.Execute(context.Background(), AppendTimelineEventInput{SessionID: session.ID, Type: "chatter"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListSessions_Execute(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	task := f.createTask(t, project.ID, "a")
	worker := f.createSession(t, CreateSessionInput{ProjectID: project.ID, TaskIDs: []string{task.ID}})
	f.createSession(t, CreateSessionInput{ProjectID: project.ID, Role: domain.RoleOrchestrator})
	uc := NewListSessions(f.store.Sessions)

	out, err := uc.Execute(context.Background(), ListSessionsInput{TaskID: task.ID})
	require.NoError(t, err)
	require.Len(t, out.Sessions, 1)
	assert.Equal(t, worker.ID, out.Sessions[0].ID)

	out, err = uc.Execute(context.Background(), ListSessionsInput{Role: domain.RoleOrchestrator})
	require.NoError(t, err)
	assert.Len(t, out.Sessions, 1)

	_, err = uc.Execute(context.Background(), ListSessionsInput{Status: "asleep"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteSession_Execute_DetachesTaskLinkedDuringDrain(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	t1 := f.createTask(t, project.ID, "a")
	late := f.createTask(t, project.ID, "late")
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID, Strategy: domain.StrategyQueue, TaskIDs: []string{t1.ID}})

	var once sync.Once
	event.Subscribe(f.bus, event.TaskUpdated, "late-link", func(ctx context.Context, _ domain.Task) error {
		var err error
		once.Do(func() { _, err = f.linker.Link(ctx, late.ID, session.ID) })
		return err
	})

	_, err := f.newDeleteSession().Execute(context.Background(), DeleteSessionInput{SessionID: session.ID})

	require.NoError(t, err)
	stored, _ := f.store.Sessions.Get(session.ID)
	assert.Nil(t, stored)
	assert.NotContains(t, f.task(t, late.ID).SessionIDs, session.ID)
	assert.NotContains(t, f.task(t, t1.ID).SessionIDs, session.ID)
}
