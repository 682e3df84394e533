// Package usecase contains application use cases.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
)

// CreateProjectInput contains the parameters for creating a project.
type CreateProjectInput struct {
	Name        string // Project name (required)
	WorkingDir  string // Workspace root (required)
	Description string // Description (optional)
}

// CreateProjectOutput contains the result of creating a project.
type CreateProjectOutput struct {
	Project *domain.Project
}

// CreateProject is the use case for creating a project.
type CreateProject struct {
	projects domain.ProjectRepository
	ids      domain.IDGenerator
	clock    domain.Clock
	bus      *event.Bus
}

// NewCreateProject creates a new CreateProject use case.
func NewCreateProject(projects domain.ProjectRepository, bus *event.Bus, ids domain.IDGenerator, clock domain.Clock) *CreateProject {
	return &CreateProject{
		projects: projects,
		bus:      bus,
		ids:      ids,
		clock:    clock,
	}
}

// Execute creates a project and publishes project:created.
func (uc *CreateProject) Execute(ctx context.Context, in CreateProjectInput) (*CreateProjectOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if strings.TrimSpace(in.WorkingDir) == "" {
		return nil, domain.NewValidationError("workingDir", "cannot be empty")
	}

	now := uc.clock.Now()
	project := &domain.Project{
		ID:          uc.ids.NewID("proj"),
		Name:        name,
		WorkingDir:  in.WorkingDir,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.projects.Create(project); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}

	event.Publish(ctx, uc.bus, event.ProjectCreated, *project)
	return &CreateProjectOutput{Project: project}, nil
}
