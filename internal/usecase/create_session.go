package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// CreateSessionInput contains the parameters for creating a session.
// Fields are ordered to minimize memory padding.
type CreateSessionInput struct {
	Metadata  map[string]string    // Free-form labels (optional)
	ProjectID string               // Owning project (required)
	Name      string               // Display name (optional)
	Role      domain.Role          // Defaults to worker
	Strategy  domain.Strategy      // Defaults to simple
	Status    domain.SessionStatus // Initial status; defaults to spawning
	TaskIDs   []string             // Initial tasks, in submission order
}

// CreateSessionOutput contains the created session and, for the queue
// strategy, its queue.
type CreateSessionOutput struct {
	Session *domain.Session
	Queue   *domain.QueueState
	tasks   []*domain.Task // linked task snapshots, announced after the session
}

// CreateSession is the use case for creating a session. Initial tasks are
// associated on both sides and announced once through session:created.
// Fields are ordered to minimize memory padding.
type CreateSession struct {
	projects domain.ProjectRepository
	tasks    domain.TaskRepository
	queues   domain.QueueRepository
	ids      domain.IDGenerator
	clock    domain.Clock
	logger   domain.Logger
	linker   *shared.Linker
	bus      *event.Bus
}

// NewCreateSession creates a new CreateSession use case.
func NewCreateSession(
	projects domain.ProjectRepository,
	tasks domain.TaskRepository,
	queues domain.QueueRepository,
	linker *shared.Linker,
	bus *event.Bus,
	ids domain.IDGenerator,
	clock domain.Clock,
	logger domain.Logger,
) *CreateSession {
	return &CreateSession{
		projects: projects,
		tasks:    tasks,
		queues:   queues,
		linker:   linker,
		bus:      bus,
		ids:      ids,
		clock:    clock,
		logger:   logger,
	}
}

// Execute creates the session and publishes session:created, then one
// task:updated per linked task.
func (uc *CreateSession) Execute(ctx context.Context, in CreateSessionInput) (*CreateSessionOutput, error) {
	out, err := uc.create(in)
	if err != nil {
		return nil, err
	}
	event.Publish(ctx, uc.bus, event.SessionCreated, *out.Session)
	publishLinkedTasks(ctx, uc.bus, out.tasks)
	return out, nil
}

// publishLinkedTasks announces the task side of a new session's associations.
func publishLinkedTasks(ctx context.Context, bus *event.Bus, tasks []*domain.Task) {
	for _, t := range tasks {
		event.Publish(ctx, bus, event.TaskUpdated, *t)
	}
}

// create does the work of Execute without announcing the session, so that
// SpawnSession can publish a single spawn event instead.
func (uc *CreateSession) create(in CreateSessionInput) (*CreateSessionOutput, error) {
	if in.Role == "" {
		in.Role = domain.RoleWorker
	}
	if in.Strategy == "" {
		in.Strategy = domain.StrategySimple
	}
	if in.Status == "" {
		in.Status = domain.SessionStatusSpawning
	}
	if !in.Role.IsValid() {
		return nil, domain.NewValidationError("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	if !in.Strategy.IsValid() {
		return nil, domain.NewValidationError("strategy", fmt.Sprintf("unknown strategy %q", in.Strategy))
	}
	if !in.Status.IsValid() || in.Status.IsTerminal() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("%q is not a valid initial status", in.Status))
	}

	if _, err := shared.GetProject(uc.projects, in.ProjectID); err != nil {
		return nil, err
	}

	taskIDs := dedupe(in.TaskIDs)
	for _, id := range taskIDs {
		task, err := shared.GetTask(uc.tasks, id)
		if err != nil {
			return nil, err
		}
		if task.ProjectID != in.ProjectID {
			return nil, fmt.Errorf("task %s: %w", id, domain.ErrProjectMismatch)
		}
	}

	now := uc.clock.Now()
	session := &domain.Session{
		ID:             uc.ids.NewID("sess"),
		ProjectID:      in.ProjectID,
		Name:           strings.TrimSpace(in.Name),
		Role:           in.Role,
		Strategy:       in.Strategy,
		Status:         in.Status,
		TaskIDs:        taskIDs,
		Metadata:       maps.Clone(in.Metadata),
		Timeline:       make([]domain.TimelineEvent, 0, len(taskIDs)),
		StartedAt:      now,
		LastActivityAt: now,
	}
	for _, id := range taskIDs {
		session.Append(shared.NewTimelineEvent(uc.ids, uc.clock, domain.TimelineTaskAdded, "task added", id))
	}

	var queue *domain.QueueState
	report := domain.TaskSessionStatusNone
	if in.Strategy == domain.StrategyQueue {
		session.QueueID = session.ID
		queue = domain.NewQueueState(session.ID, taskIDs, now)
		if err := uc.queues.Create(queue); err != nil {
			return nil, fmt.Errorf("create queue: %w", err)
		}
		report = domain.TaskSessionStatusQueued
	}

	tasks, err := uc.linker.CreateLinked(session, report)
	if err != nil {
		if queue != nil {
			err = errors.Join(err, uc.queues.Delete(session.ID))
		}
		return nil, err
	}

	if uc.logger != nil {
		uc.logger.Info(session.ID, "session", fmt.Sprintf("created %s/%s with %d tasks", session.Role, session.Strategy, len(taskIDs)))
	}
	return &CreateSessionOutput{Session: session, Queue: queue, tasks: tasks}, nil
}

// dedupe drops repeated and empty ids, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
