package usecase

import (
	"context"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// GetTaskInput contains the parameters for fetching a task.
type GetTaskInput struct {
	TaskID string
}

// GetTaskOutput contains the fetched task.
type GetTaskOutput struct {
	Task *domain.Task
}

// GetTask is the use case for fetching one task.
type GetTask struct {
	tasks domain.TaskRepository
}

// NewGetTask creates a new GetTask use case.
func NewGetTask(tasks domain.TaskRepository) *GetTask {
	return &GetTask{tasks: tasks}
}

// Execute returns the task or domain.ErrTaskNotFound.
func (uc *GetTask) Execute(_ context.Context, in GetTaskInput) (*GetTaskOutput, error) {
	task, err := shared.GetTask(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	return &GetTaskOutput{Task: task}, nil
}
