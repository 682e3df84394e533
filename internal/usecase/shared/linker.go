package shared

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
)

// Linker owns the task↔session association. Every change goes through it so
// that task.SessionIDs and session.TaskIDs always mirror each other: the task
// side is written first, the session side second, and a failed session write
// rolls the task side back. A single mutex serializes association changes.
// Fields are ordered to minimize memory padding.
type Linker struct {
	tasks    domain.TaskRepository
	sessions domain.SessionRepository
	clock    domain.Clock
	ids      domain.IDGenerator
	logger   domain.Logger
	bus      *event.Bus
	mu       sync.Mutex
}

// NewLinker creates a Linker.
func NewLinker(
	tasks domain.TaskRepository,
	sessions domain.SessionRepository,
	bus *event.Bus,
	clock domain.Clock,
	ids domain.IDGenerator,
	logger domain.Logger,
) *Linker {
	return &Linker{
		tasks:    tasks,
		sessions: sessions,
		bus:      bus,
		clock:    clock,
		ids:      ids,
		logger:   logger,
	}
}

// LinkResult is the state of both sides after a Link or Unlink.
type LinkResult struct {
	Task    *domain.Task
	Session *domain.Session
	Changed bool // false when the association was already in the requested state
}

// Link associates taskID with sessionID on both sides and publishes
// task:session_added and session:task_added. Linking an existing pair is a no-op.
// Events are published after the lock is released.
func (l *Linker) Link(ctx context.Context, taskID, sessionID string) (*LinkResult, error) {
	res, err := l.link(taskID, sessionID)
	if err != nil {
		return nil, err
	}
	if res.Changed {
		event.Publish(ctx, l.bus, event.TaskSessionAdded, domain.TaskSessionPayload{TaskID: taskID, SessionID: sessionID})
		event.Publish(ctx, l.bus, event.SessionTaskAdded, domain.SessionTaskPayload{SessionID: sessionID, TaskID: taskID})
	}
	return res, nil
}

func (l *Linker) link(taskID, sessionID string) (*LinkResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	task, err := GetTask(l.tasks, taskID)
	if err != nil {
		return nil, err
	}
	session, err := GetSession(l.sessions, sessionID)
	if err != nil {
		return nil, err
	}
	if task.ProjectID != session.ProjectID {
		return nil, domain.ErrProjectMismatch
	}
	if task.HasSession(sessionID) && session.HasTask(taskID) {
		return &LinkResult{Task: task, Session: session}, nil
	}
	if err := RequireActiveSession(session); err != nil {
		return nil, err
	}

	now := l.clock.Now()
	taskChanged := false
	task, err = l.tasks.Update(taskID, func(t *domain.Task) error {
		if taskChanged = t.AddSession(sessionID); taskChanged {
			t.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add session to task: %w", err)
	}

	entry := NewTimelineEvent(l.ids, l.clock, domain.TimelineTaskAdded, "task added", taskID)
	session, err = l.sessions.Update(sessionID, func(s *domain.Session) error {
		if s.AddTask(taskID) {
			s.Append(entry)
		}
		return nil
	})
	if err != nil {
		if taskChanged {
			err = errors.Join(err, l.rollback(taskID, func(t *domain.Task) { t.RemoveSession(sessionID) }))
		}
		return nil, fmt.Errorf("add task to session: %w", err)
	}
	return &LinkResult{Task: task, Session: session, Changed: true}, nil
}

// Unlink removes the association on both sides, records reason on the
// session timeline and publishes task:session_removed and
// session:task_removed. Unlinking a pair that is not linked is a no-op.
func (l *Linker) Unlink(ctx context.Context, taskID, sessionID, reason string) (*LinkResult, error) {
	l.mu.Lock()
	res, err := l.unlink(taskID, sessionID, reason)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if res.Changed {
		l.publishRemoved(ctx, taskID, sessionID)
	}
	return res, nil
}

// DeleteSession detaches every task from the session and removes the
// session row in one step, so no association can land in between. The
// task list is read under the lock. Returns the detached task IDs.
func (l *Linker) DeleteSession(ctx context.Context, sessionID, reason string) ([]string, error) {
	l.mu.Lock()
	detached, err := l.deleteSession(sessionID, reason)
	l.mu.Unlock()

	for _, taskID := range detached {
		l.publishRemoved(ctx, taskID, sessionID)
	}
	return detached, err
}

func (l *Linker) deleteSession(sessionID, reason string) ([]string, error) {
	session, err := GetSession(l.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	var detached []string
	for _, taskID := range session.TaskIDs {
		res, err := l.unlink(taskID, sessionID, reason)
		if errors.Is(err, domain.ErrTaskNotFound) {
			continue
		}
		if err != nil {
			return detached, fmt.Errorf("detach task %s: %w", taskID, err)
		}
		if res.Changed {
			detached = append(detached, taskID)
		}
	}

	if err := l.sessions.Delete(sessionID); err != nil {
		return detached, fmt.Errorf("delete session: %w", err)
	}
	return detached, nil
}

// unlink does the work of Unlink; the caller holds l.mu.
func (l *Linker) unlink(taskID, sessionID, reason string) (*LinkResult, error) {
	task, err := GetTask(l.tasks, taskID)
	if err != nil {
		return nil, err
	}
	session, err := GetSession(l.sessions, sessionID)
	if err != nil {
		return nil, err
	}
	if !task.HasSession(sessionID) && !session.HasTask(taskID) {
		return &LinkResult{Task: task, Session: session}, nil
	}

	now := l.clock.Now()
	taskChanged := false
	task, err = l.tasks.Update(taskID, func(t *domain.Task) error {
		if taskChanged = t.RemoveSession(sessionID); taskChanged {
			t.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("remove session from task: %w", err)
	}

	entry := NewTimelineEvent(l.ids, l.clock, domain.TimelineTaskRemoved, reason, taskID)
	session, err = l.sessions.Update(sessionID, func(s *domain.Session) error {
		if s.RemoveTask(taskID) {
			s.Append(entry)
		}
		return nil
	})
	if err != nil {
		if taskChanged {
			err = errors.Join(err, l.rollback(taskID, func(t *domain.Task) { t.AddSession(sessionID) }))
		}
		return nil, fmt.Errorf("remove task from session: %w", err)
	}
	return &LinkResult{Task: task, Session: session, Changed: true}, nil
}

func (l *Linker) publishRemoved(ctx context.Context, taskID, sessionID string) {
	event.Publish(ctx, l.bus, event.TaskSessionRemoved, domain.TaskSessionPayload{TaskID: taskID, SessionID: sessionID})
	event.Publish(ctx, l.bus, event.SessionTaskRemoved, domain.SessionTaskPayload{SessionID: sessionID, TaskID: taskID})
}

// CreateLinked stores a new session whose TaskIDs are already set and adds
// the session to every one of those tasks. When report is not empty it is
// recorded as the session's first report on each task. No events are
// published; the caller announces the session once and may announce the
// returned task snapshots.
func (l *Linker) CreateLinked(session *domain.Session, report domain.TaskSessionStatus) ([]*domain.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	linked := make([]*domain.Task, 0, len(session.TaskIDs))
	undo := func(cause error) error {
		errs := []error{cause}
		for _, t := range linked {
			errs = append(errs, l.rollback(t.ID, func(t *domain.Task) {
				t.RemoveSession(session.ID)
				t.ClearReport(session.ID)
			}))
		}
		return errors.Join(errs...)
	}

	for _, taskID := range session.TaskIDs {
		task, err := l.tasks.Update(taskID, func(t *domain.Task) error {
			if t.ProjectID != session.ProjectID {
				return domain.ErrProjectMismatch
			}
			t.AddSession(session.ID)
			t.UpdatedAt = now
			if report != domain.TaskSessionStatusNone {
				return t.Report(session.ID, report, true, now)
			}
			return nil
		})
		if err != nil {
			return nil, undo(fmt.Errorf("link task %s: %w", taskID, err))
		}
		linked = append(linked, task)
	}

	if err := l.sessions.Create(session); err != nil {
		return nil, undo(fmt.Errorf("create session: %w", err))
	}
	return linked, nil
}

func (l *Linker) rollback(taskID string, fn func(*domain.Task)) error {
	_, err := l.tasks.Update(taskID, func(t *domain.Task) error {
		fn(t)
		return nil
	})
	if err != nil {
		if l.logger != nil {
			l.logger.Error("", "task", fmt.Sprintf("rollback of task %s failed: %v", taskID, err))
		}
		return fmt.Errorf("rollback task %s: %w", taskID, err)
	}
	return nil
}
