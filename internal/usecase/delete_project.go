package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// DeleteProjectInput contains the parameters for deleting a project.
type DeleteProjectInput struct {
	ProjectID string
}

// DeleteProjectOutput is empty; a nil error means the project is gone.
type DeleteProjectOutput struct{}

// DeleteProject is the use case for deleting an empty project.
type DeleteProject struct {
	projects domain.ProjectRepository
	tasks    domain.TaskRepository
	sessions domain.SessionRepository
	bus      *event.Bus
}

// NewDeleteProject creates a new DeleteProject use case.
func NewDeleteProject(projects domain.ProjectRepository, tasks domain.TaskRepository, sessions domain.SessionRepository, bus *event.Bus) *DeleteProject {
	return &DeleteProject{projects: projects, tasks: tasks, sessions: sessions, bus: bus}
}

// Execute deletes the project. It refuses while the project still owns
// tasks or sessions; nothing is cascaded.
func (uc *DeleteProject) Execute(ctx context.Context, in DeleteProjectInput) (*DeleteProjectOutput, error) {
	if _, err := shared.GetProject(uc.projects, in.ProjectID); err != nil {
		return nil, err
	}

	tasks, err := uc.tasks.List(domain.TaskFilter{ProjectID: in.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	sessions, err := uc.sessions.List(domain.SessionFilter{ProjectID: in.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if len(tasks) > 0 || len(sessions) > 0 {
		return nil, fmt.Errorf("%d tasks, %d sessions: %w", len(tasks), len(sessions), domain.ErrProjectNotEmpty)
	}

	if err := uc.projects.Delete(in.ProjectID); err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}

	event.Publish(ctx, uc.bus, event.ProjectDeleted, domain.DeletedPayload{ID: in.ProjectID})
	return &DeleteProjectOutput{}, nil
}
