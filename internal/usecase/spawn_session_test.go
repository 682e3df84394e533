package usecase

import (
	"context"
	"testing"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnSession_Execute(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	t1 := f.createTask(t, project.ID, "a")
	t2 := f.createTask(t, project.ID, "b")
	f.rec.Reset()

	out, err := f.newSpawn().Execute(context.Background(), SpawnSessionInput{
		ProjectID: project.ID,
		Strategy:  domain.StrategyQueue,
		TaskIDs:   []string{t1.ID, t2.ID},
	})

	require.NoError(t, err)
	assert.Equal(t, []event.Name{"session:spawn", "task:updated", "task:updated"}, f.rec.Names(), "spawn replaces session:created")
	assert.Zero(t, f.rec.Count("session:created"))
	assert.Equal(t, domain.SessionStatusSpawning, out.Session.Status)
	require.NotNil(t, out.Queue)

	payload, ok := f.rec.Events()[0].Payload.(domain.SpawnPayload)
	require.True(t, ok)
	assert.Equal(t, out.Session.ID, payload.Session.ID)
	assert.Equal(t, "claude", payload.Command)
	assert.Equal(t, []string{"--print"}, payload.Args)
	assert.Equal(t, "/work/demo", payload.Cwd)
	assert.Equal(t, domain.SpawnSourceUser, payload.SpawnSource)
	assert.Equal(t, map[string]string{
		domain.EnvSessionID:   out.Session.ID,
		domain.EnvProjectID:   project.ID,
		domain.EnvTaskIDs:     t1.ID + "," + t2.ID,
		domain.EnvAPIURL:      "http://127.0.0.1:3000",
		domain.EnvRole:        "worker",
		domain.EnvStrategy:    "queue",
		domain.EnvSpawnSource: "ui",
	}, payload.EnvVars)
	assert.Equal(t, payload.EnvVars, out.Launch.EnvVars)
}

func TestSpawnSession_Execute_Orchestrator(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)

	out, err := f.newSpawn().Execute(context.Background(), SpawnSessionInput{
		ProjectID: project.ID,
		Role:      domain.RoleOrchestrator,
		Source:    domain.SpawnSourceSession,
	})

	require.NoError(t, err)
	assert.Empty(t, out.Session.TaskIDs)
	assert.Equal(t, "session", out.Launch.EnvVars[domain.EnvSpawnSource])
	assert.Equal(t, "", out.Launch.EnvVars[domain.EnvTaskIDs])
}

func TestSpawnSession_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      SpawnSessionInput
		wantErr error
	}{
		{"worker without tasks", SpawnSessionInput{ProjectID: "proj_1"}, domain.ErrValidation},
		{"unknown source", SpawnSessionInput{ProjectID: "proj_1", Role: domain.RoleOrchestrator, Source: "cron"}, domain.ErrValidation},
		{"unknown project", SpawnSessionInput{ProjectID: "proj_9", Role: domain.RoleOrchestrator}, domain.ErrProjectNotFound},
		{"unknown task", SpawnSessionInput{ProjectID: "proj_1", TaskIDs: []string{"task_9"}}, domain.ErrTaskNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.createProject(t)
			f.rec.Reset()

			_, err := f.newSpawn().Execute(context.Background(), tt.in)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.rec.Names())
		})
	}
}
