package usecase

import (
	"context"
	"testing"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHook_Execute_PauseResumeReplay(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	task := f.createTask(t, project.ID, "a")
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID, TaskIDs: []string{task.ID}, Status: domain.SessionStatusWorking})
	uc := f.newHandleHook()
	ctx := context.Background()

	out, err := uc.Execute(ctx, HandleHookInput{SessionID: session.ID, Signal: domain.HookAwaitingInput})
	require.NoError(t, err)
	assert.False(t, out.Ignored)
	assert.Equal(t, domain.SessionStatusNeedsUserInput, out.Session.Status)
	assert.Equal(t, domain.TimelineSessionPaused, out.Session.Timeline[len(out.Session.Timeline)-1].Type)

	out, err = uc.Execute(ctx, HandleHookInput{SessionID: session.ID, Signal: domain.HookInputSubmitted})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusWorking, out.Session.Status)

	f.rec.Reset()
	before := len(f.session(t, session.ID).Timeline)
	out, err = uc.Execute(ctx, HandleHookInput{SessionID: session.ID, Signal: domain.HookInputSubmitted})
	require.NoError(t, err)
	assert.True(t, out.Ignored)
	assert.Equal(t, domain.SessionStatusWorking, out.Session.Status)
	assert.Len(t, f.session(t, session.ID).Timeline, before)
	assert.Empty(t, f.rec.Names(), "replays publish nothing")
}

func TestHandleHook_Execute_ProcessStarted(t *testing.T) {
	tests := []struct {
		name     string
		withTask bool
		want     domain.SessionStatus
	}{
		{"with tasks", true, domain.SessionStatusWorking},
		{"without tasks", false, domain.SessionStatusIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			project := f.createProject(t)
			in := CreateSessionInput{ProjectID: project.ID}
			if tt.withTask {
				in.TaskIDs = []string{f.createTask(t, project.ID, "a").ID}
			}
			session := f.createSession(t, in)

			out, err := f.newHandleHook().Execute(context.Background(), HandleHookInput{SessionID: session.ID, Signal: domain.HookProcessStarted})

			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Session.Status)
			assert.Equal(t, domain.TimelineSessionStarted, out.Session.Timeline[len(out.Session.Timeline)-1].Type)

			// A late second start is ignored.
			out, err = f.newHandleHook().Execute(context.Background(), HandleHookInput{SessionID: session.ID, Signal: domain.HookProcessStarted})
			require.NoError(t, err)
			assert.True(t, out.Ignored)
		})
	}
}

func TestHandleHook_Execute_ProcessEnded(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID, Status: domain.SessionStatusWorking})
	uc := f.newHandleHook()
	ctx := context.Background()

	out, err := uc.Execute(ctx, HandleHookInput{SessionID: session.ID, Signal: domain.HookProcessEnded})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, out.Session.Status)
	assert.NotNil(t, out.Session.CompletedAt)

	out, err = uc.Execute(ctx, HandleHookInput{SessionID: session.ID, Signal: domain.HookProcessEnded, ExitCode: 1})
	require.NoError(t, err)
	assert.True(t, out.Ignored, "an ended session stays ended")
	assert.Equal(t, domain.SessionStatusCompleted, out.Session.Status)
}

func TestHandleHook_Execute_NonZeroExitFails(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID, Status: domain.SessionStatusWorking})

	out, err := f.newHandleHook().Execute(context.Background(), HandleHookInput{SessionID: session.ID, Signal: domain.HookProcessEnded, ExitCode: 2})

	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusFailed, out.Session.Status)
	assert.Contains(t, out.Session.Timeline[len(out.Session.Timeline)-1].Message, "exit code 2")
}

func TestHandleHook_Execute_Errors(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t)
	session := f.createSession(t, CreateSessionInput{ProjectID: project.ID})
	uc := f.newHandleHook()

	_, err := uc.Execute(context.Background(), HandleHookInput{SessionID: session.ID, Signal: "waiting"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.Execute(context.Background(), HandleHookInput{SessionID: "sess_9", Signal: domain.HookProcessStarted})
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	// spawning cannot jump straight to needs_user_input.
	_, err = uc.Execute(context.Background(), HandleHookInput{SessionID: session.ID, Signal: domain.HookAwaitingInput})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}
