package usecase

import (
	"context"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// GetProjectInput contains the parameters for fetching a project.
type GetProjectInput struct {
	ProjectID string
}

// GetProjectOutput contains the fetched project.
type GetProjectOutput struct {
	Project *domain.Project
}

// GetProject is the use case for fetching one project.
type GetProject struct {
	projects domain.ProjectRepository
}

// NewGetProject creates a new GetProject use case.
func NewGetProject(projects domain.ProjectRepository) *GetProject {
	return &GetProject{projects: projects}
}

// Execute returns the project or domain.ErrProjectNotFound.
func (uc *GetProject) Execute(_ context.Context, in GetProjectInput) (*GetProjectOutput, error) {
	project, err := shared.GetProject(uc.projects, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return &GetProjectOutput{Project: project}, nil
}
