package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// DeleteTaskInput contains the parameters for deleting a task.
type DeleteTaskInput struct {
	TaskID string             // Task ID to delete
	Policy domain.ChildPolicy // What to do with child tasks; empty refuses when children exist
}

// DeleteTaskOutput contains the result of deleting a task.
type DeleteTaskOutput struct {
	Deleted  []string // IDs of deleted tasks, children before parents
	Detached []string // IDs of children that became root tasks
}

// DeleteTask is the use case for deleting a task.
// Fields are ordered to minimize memory padding.
type DeleteTask struct {
	tasks     domain.TaskRepository
	logger    domain.Logger
	linker    *shared.Linker
	queueSync *shared.QueueSync
	bus       *event.Bus
	clock     domain.Clock
}

// NewDeleteTask creates a new DeleteTask use case.
func NewDeleteTask(
	tasks domain.TaskRepository,
	linker *shared.Linker,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	clock domain.Clock,
	logger domain.Logger,
) *DeleteTask {
	return &DeleteTask{
		tasks:     tasks,
		linker:    linker,
		queueSync: queueSync,
		bus:       bus,
		clock:     clock,
		logger:    logger,
	}
}

// Execute deletes a task with the given ID. Associated sessions are
// detached on both sides and still-queued items for the task are skipped.
func (uc *DeleteTask) Execute(ctx context.Context, in DeleteTaskInput) (*DeleteTaskOutput, error) {
	if !in.Policy.IsValid() {
		return nil, domain.NewValidationError("policy", fmt.Sprintf("unknown child policy %q", in.Policy))
	}

	task, err := shared.GetTask(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}

	children, err := uc.children(task.ID)
	if err != nil {
		return nil, err
	}

	out := &DeleteTaskOutput{}
	switch {
	case len(children) == 0:
	case in.Policy == domain.ChildPolicyBlock:
		return nil, fmt.Errorf("%s has %d children: %w", task.ID, len(children), domain.ErrTaskHasChildren)
	case in.Policy == domain.ChildPolicyDetach:
		now := uc.clock.Now()
		for _, child := range children {
			updated, err := uc.tasks.Update(child.ID, func(t *domain.Task) error {
				t.ParentID = nil
				t.UpdatedAt = now
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("detach child task: %w", err)
			}
			event.Publish(ctx, uc.bus, event.TaskUpdated, *updated)
			out.Detached = append(out.Detached, child.ID)
		}
	case in.Policy == domain.ChildPolicyCascade:
		for _, child := range children {
			deleted, err := uc.deleteSubtree(ctx, child)
			out.Deleted = append(out.Deleted, deleted...)
			if err != nil {
				return out, err
			}
		}
	}

	if err := uc.deleteOne(ctx, task); err != nil {
		return out, err
	}
	out.Deleted = append(out.Deleted, task.ID)
	return out, nil
}

func (uc *DeleteTask) children(taskID string) ([]*domain.Task, error) {
	children, err := uc.tasks.List(domain.TaskFilter{ParentID: &taskID})
	if err != nil {
		return nil, fmt.Errorf("list child tasks: %w", err)
	}
	return children, nil
}

// deleteSubtree removes task and its descendants, deepest first.
func (uc *DeleteTask) deleteSubtree(ctx context.Context, task *domain.Task) ([]string, error) {
	children, err := uc.children(task.ID)
	if err != nil {
		return nil, err
	}
	var deleted []string
	for _, child := range children {
		ids, err := uc.deleteSubtree(ctx, child)
		deleted = append(deleted, ids...)
		if err != nil {
			return deleted, err
		}
	}
	if err := uc.deleteOne(ctx, task); err != nil {
		return deleted, err
	}
	return append(deleted, task.ID), nil
}

func (uc *DeleteTask) deleteOne(ctx context.Context, task *domain.Task) error {
	for _, sessionID := range task.SessionIDs {
		if err := uc.queueSync.Forget(sessionID, task.ID, "task deleted"); err != nil {
			return err
		}
		if _, err := uc.linker.Unlink(ctx, task.ID, sessionID, "task deleted"); err != nil {
			return fmt.Errorf("detach session %s: %w", sessionID, err)
		}
	}

	if err := uc.tasks.Delete(task.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("", "task", fmt.Sprintf("%s deleted", task.ID))
	}
	event.Publish(ctx, uc.bus, event.TaskDeleted, domain.DeletedPayload{ID: task.ID})
	return nil
}
