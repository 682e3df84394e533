package usecase

import (
	"context"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// GetSessionInput contains the parameters for fetching a session.
type GetSessionInput struct {
	SessionID string
}

// GetSessionOutput contains the fetched session.
type GetSessionOutput struct {
	Session *domain.Session
}

// GetSession is the use case for fetching one session.
type GetSession struct {
	sessions domain.SessionRepository
}

// NewGetSession creates a new GetSession use case.
func NewGetSession(sessions domain.SessionRepository) *GetSession {
	return &GetSession{sessions: sessions}
}

// Execute returns the session or domain.ErrSessionNotFound.
func (uc *GetSession) Execute(_ context.Context, in GetSessionInput) (*GetSessionOutput, error) {
	session, err := shared.GetSession(uc.sessions, in.SessionID)
	if err != nil {
		return nil, err
	}
	return &GetSessionOutput{Session: session}, nil
}
