package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// CreateTaskInput contains the parameters for creating a new task.
// Fields are ordered to minimize memory padding.
type CreateTaskInput struct {
	ParentID     *string         // Parent task ID (optional, nil = root task)
	ProjectID    string          // Owning project (required)
	Title        string          // Task title (required)
	Description  string          // Task description (optional)
	Priority     domain.Priority // Defaults to medium
	Dependencies []string        // Recorded, not enforced
}

// CreateTaskOutput contains the result of creating a new task.
type CreateTaskOutput struct {
	Task *domain.Task
}

// CreateTask is the use case for creating a new task.
type CreateTask struct {
	projects domain.ProjectRepository
	tasks    domain.TaskRepository
	ids      domain.IDGenerator
	clock    domain.Clock
	logger   domain.Logger
	bus      *event.Bus
}

// NewCreateTask creates a new CreateTask use case.
func NewCreateTask(
	projects domain.ProjectRepository,
	tasks domain.TaskRepository,
	bus *event.Bus,
	ids domain.IDGenerator,
	clock domain.Clock,
	logger domain.Logger,
) *CreateTask {
	return &CreateTask{
		projects: projects,
		tasks:    tasks,
		bus:      bus,
		ids:      ids,
		clock:    clock,
		logger:   logger,
	}
}

// Execute creates a new task with the given input and publishes task:created.
func (uc *CreateTask) Execute(ctx context.Context, in CreateTaskInput) (*CreateTaskOutput, error) {
	// Validate input
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, domain.NewValidationError("priority", fmt.Sprintf("unknown priority %q", priority))
	}

	if _, err := shared.GetProject(uc.projects, in.ProjectID); err != nil {
		return nil, err
	}

	// Validate parent exists if specified
	if in.ParentID != nil {
		parent, err := uc.tasks.Get(*in.ParentID)
		if err != nil {
			return nil, fmt.Errorf("get parent task: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("%s: %w", *in.ParentID, domain.ErrParentNotFound)
		}
		if parent.ProjectID != in.ProjectID {
			return nil, domain.NewValidationError("parentId", "parent belongs to another project")
		}
	}

	now := uc.clock.Now()
	task := &domain.Task{
		ID:           uc.ids.NewID("task"),
		ProjectID:    in.ProjectID,
		ParentID:     in.ParentID,
		Title:        title,
		Description:  in.Description,
		Status:       domain.TaskStatusTodo,
		Priority:     priority,
		SessionIDs:   []string{},
		Dependencies: in.Dependencies,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.tasks.Create(task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("", "task", fmt.Sprintf("%s created: %q", task.ID, title))
	}

	event.Publish(ctx, uc.bus, event.TaskCreated, *task)
	return &CreateTaskOutput{Task: task}, nil
}
