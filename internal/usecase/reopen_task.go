package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
)

// ReopenTaskInput contains the parameters for reopening a task.
type ReopenTaskInput struct {
	TaskID string
	Status domain.TaskStatus // todo or in_progress; empty means todo
}

// ReopenTaskOutput contains the reopened task.
type ReopenTaskOutput struct {
	Task *domain.Task
}

// ReopenTask is the use case for moving a completed or cancelled task back
// into work. It is the only way out of a terminal task status.
type ReopenTask struct {
	tasks  domain.TaskRepository
	clock  domain.Clock
	logger domain.Logger
	bus    *event.Bus
}

// NewReopenTask creates a new ReopenTask use case.
func NewReopenTask(tasks domain.TaskRepository, bus *event.Bus, clock domain.Clock, logger domain.Logger) *ReopenTask {
	return &ReopenTask{tasks: tasks, bus: bus, clock: clock, logger: logger}
}

// Execute reopens the task, clearing its completion timestamp.
func (uc *ReopenTask) Execute(ctx context.Context, in ReopenTaskInput) (*ReopenTaskOutput, error) {
	to := in.Status
	if to == "" {
		to = domain.TaskStatusTodo
	}

	now := uc.clock.Now()
	task, err := uc.tasks.Update(in.TaskID, func(t *domain.Task) error {
		return t.Reopen(to, now)
	})
	if err != nil {
		return nil, fmt.Errorf("reopen task: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("", "task", fmt.Sprintf("%s reopened as %s", task.ID, to))
	}
	event.Publish(ctx, uc.bus, event.TaskUpdated, *task)
	return &ReopenTaskOutput{Task: task}, nil
}
