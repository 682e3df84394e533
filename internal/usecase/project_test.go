package usecase

import (
	"context"
	"testing"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProject_Execute(t *testing.T) {
	f := newFixture(t)

	project := f.createProject(t)

	assert.Equal(t, "proj_1", project.ID)
	assert.Equal(t, "demo", project.Name)
	assert.Equal(t, f.clock.Now(), project.CreatedAt)
	assert.Equal(t, []event.Name{"project:created"}, f.rec.Names())
}

func TestCreateProject_Execute_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateProjectInput
	}{
		{"empty name", CreateProjectInput{Name: "  ", WorkingDir: "/w"}},
		{"empty working dir", CreateProjectInput{Name: "demo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := NewCreateProject(f.store.Projects, f.bus, f.ids, f.clock).Execute(context.Background(), tt.in)

			require.ErrorIs(t, err, domain.ErrValidation)
			projects, _ := f.store.Projects.List()
			assert.Empty(t, projects)
			assert.Empty(t, f.rec.Names())
		})
	}
}

func TestUpdateProject_Execute(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	f.clock.Advance(1)

	out, err := NewUpdateProject(f.store.Projects, f.bus, f.clock).Execute(context.Background(), UpdateProjectInput{
		ProjectID:   project.ID,
		Description: ptr("the demo"),
	})

	require.NoError(t, err)
	assert.Equal(t, "the demo", out.Project.Description)
	assert.Equal(t, "demo", out.Project.Name)
	assert.True(t, out.Project.UpdatedAt.After(project.UpdatedAt))
	assert.Equal(t, 1, f.rec.Count("project:updated"))
}

func TestUpdateProject_Execute_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := NewUpdateProject(f.store.Projects, f.bus, f.clock).Execute(context.Background(), UpdateProjectInput{
		ProjectID: "proj_9",
		Name:      ptr("x"),
	})

	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestDeleteProject_Execute(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	uc := NewDeleteProject(f.store.Projects, f.store.Tasks, f.store.Sessions, f.bus)

	_, err := uc.Execute(context.Background(), DeleteProjectInput{ProjectID: project.ID})

	require.NoError(t, err)
	got, _ := f.store.Projects.Get(project.ID)
	assert.Nil(t, got)
	assert.Equal(t, 1, f.rec.Count("project:deleted"))
}

func TestDeleteProject_Execute_RejectsWhenNotEmpty(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	f.createTask(t, project.ID, "keep me")
	uc := NewDeleteProject(f.store.Projects, f.store.Tasks, f.store.Sessions, f.bus)

	_, err := uc.Execute(context.Background(), DeleteProjectInput{ProjectID: project.ID})

	require.ErrorIs(t, err, domain.ErrProjectNotEmpty)
	assert.ErrorIs(t, err, domain.ErrConflict)
	got, _ := f.store.Projects.Get(project.ID)
	assert.NotNil(t, got)
	assert.Zero(t, f.rec.Count("project:deleted"))
}

func TestListProjects_Execute(t *testing.T) {
	f := newFixture(t)
	f.createProject(t)

	out, err := NewListProjects(f.store.Projects).Execute(context.Background(), ListProjectsInput{})

	require.NoError(t, err)
	assert.Len(t, out.Projects, 1)

	got, err := NewGetProject(f.store.Projects).Execute(context.Background(), GetProjectInput{ProjectID: "proj_1"})
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Project.Name)
}
