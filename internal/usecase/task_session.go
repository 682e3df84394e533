package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// TaskSessionInput names one task↔session pair.
type TaskSessionInput struct {
	TaskID    string
	SessionID string
}

// TaskSessionOutput contains both sides after the change.
type TaskSessionOutput struct {
	Task    *domain.Task
	Session *domain.Session
	Changed bool
}

// AddTaskSession is the use case for associating a task with a session.
// It serves both the task-side addSession and the session-side addTask.
type AddTaskSession struct {
	linker *shared.Linker
}

// NewAddTaskSession creates a new AddTaskSession use case.
func NewAddTaskSession(linker *shared.Linker) *AddTaskSession {
	return &AddTaskSession{linker: linker}
}

// Execute links the pair on both sides.
func (uc *AddTaskSession) Execute(ctx context.Context, in TaskSessionInput) (*TaskSessionOutput, error) {
	res, err := uc.linker.Link(ctx, in.TaskID, in.SessionID)
	if err != nil {
		return nil, err
	}
	return &TaskSessionOutput{Task: res.Task, Session: res.Session, Changed: res.Changed}, nil
}

// RemoveTaskSession is the use case for dissociating a task from a session.
// Queued items for the task in the session's queue are skipped first.
type RemoveTaskSession struct {
	linker    *shared.Linker
	queueSync *shared.QueueSync
}

// NewRemoveTaskSession creates a new RemoveTaskSession use case.
func NewRemoveTaskSession(linker *shared.Linker, queueSync *shared.QueueSync) *RemoveTaskSession {
	return &RemoveTaskSession{linker: linker, queueSync: queueSync}
}

// Execute unlinks the pair on both sides.
func (uc *RemoveTaskSession) Execute(ctx context.Context, in TaskSessionInput) (*TaskSessionOutput, error) {
	if err := uc.queueSync.SkipTask(ctx, in.SessionID, in.TaskID, "removed from session"); err != nil &&
		!errors.Is(err, domain.ErrTaskNotFound) {
		return nil, fmt.Errorf("skip queued task: %w", err)
	}
	res, err := uc.linker.Unlink(ctx, in.TaskID, in.SessionID, "removed from session")
	if err != nil {
		return nil, err
	}
	return &TaskSessionOutput{Task: res.Task, Session: res.Session, Changed: res.Changed}, nil
}
