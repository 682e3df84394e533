package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
)

// UpdateProjectInput contains the parameters for editing a project.
// Only non-nil fields are updated.
type UpdateProjectInput struct {
	Name        *string
	WorkingDir  *string
	Description *string
	ProjectID   string
}

// UpdateProjectOutput contains the updated project.
type UpdateProjectOutput struct {
	Project *domain.Project
}

// UpdateProject is the use case for editing a project.
type UpdateProject struct {
	projects domain.ProjectRepository
	clock    domain.Clock
	bus      *event.Bus
}

// NewUpdateProject creates a new UpdateProject use case.
func NewUpdateProject(projects domain.ProjectRepository, bus *event.Bus, clock domain.Clock) *UpdateProject {
	return &UpdateProject{projects: projects, bus: bus, clock: clock}
}

// Execute applies the edit and publishes project:updated.
func (uc *UpdateProject) Execute(ctx context.Context, in UpdateProjectInput) (*UpdateProjectOutput, error) {
	if in.Name == nil && in.WorkingDir == nil && in.Description == nil {
		return nil, domain.ErrNoFieldsToUpdate
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.ErrEmptyName
	}
	if in.WorkingDir != nil && strings.TrimSpace(*in.WorkingDir) == "" {
		return nil, domain.NewValidationError("workingDir", "cannot be empty")
	}

	now := uc.clock.Now()
	project, err := uc.projects.Update(in.ProjectID, func(p *domain.Project) error {
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.WorkingDir != nil {
			p.WorkingDir = *in.WorkingDir
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	event.Publish(ctx, uc.bus, event.ProjectUpdated, *project)
	return &UpdateProjectOutput{Project: project}, nil
}
