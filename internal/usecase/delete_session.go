package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// DeleteSessionInput contains the parameters for deleting a session.
type DeleteSessionInput struct {
	SessionID string
}

// DeleteSessionOutput contains the result of deleting a session.
type DeleteSessionOutput struct {
	DetachedTaskIDs []string
	Reason          string // Why the tasks were detached: closed, completed or failed
}

// DeleteSession is the use case for deleting a session. Its queue is closed
// and every task is detached on both sides before the session row goes.
type DeleteSession struct {
	sessions  domain.SessionRepository
	logger    domain.Logger
	linker    *shared.Linker
	queueSync *shared.QueueSync
	bus       *event.Bus
}

// NewDeleteSession creates a new DeleteSession use case.
func NewDeleteSession(
	sessions domain.SessionRepository,
	linker *shared.Linker,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	logger domain.Logger,
) *DeleteSession {
	return &DeleteSession{
		sessions:  sessions,
		linker:    linker,
		queueSync: queueSync,
		bus:       bus,
		logger:    logger,
	}
}

// Execute deletes the session.
func (uc *DeleteSession) Execute(ctx context.Context, in DeleteSessionInput) (*DeleteSessionOutput, error) {
	session, err := shared.GetSession(uc.sessions, in.SessionID)
	if err != nil {
		return nil, err
	}
	reason := session.DetachReason()

	if err := uc.queueSync.Drain(ctx, session.ID, reason); err != nil {
		return nil, err
	}

	// Tasks linked while the queue drained are re-read and detached with the row.
	detached, err := uc.linker.DeleteSession(ctx, session.ID, reason)
	out := &DeleteSessionOutput{Reason: reason, DetachedTaskIDs: detached}
	if err != nil {
		return out, err
	}

	if uc.logger != nil {
		uc.logger.Info(session.ID, "session", fmt.Sprintf("deleted (%s), %d tasks detached", reason, len(out.DetachedTaskIDs)))
	}
	event.Publish(ctx, uc.bus, event.SessionDeleted, domain.DeletedPayload{ID: session.ID})
	return out, nil
}
