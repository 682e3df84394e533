package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
)

// ListSessionsInput contains the parameters for listing sessions.
type ListSessionsInput struct {
	ProjectID string
	TaskID    string
	Status    domain.SessionStatus
	Role      domain.Role
	Active    bool // Only sessions that have not ended
}

// ListSessionsOutput contains the matching sessions.
type ListSessionsOutput struct {
	Sessions []*domain.Session
}

// ListSessions is the use case for listing sessions.
type ListSessions struct {
	sessions domain.SessionRepository
}

// NewListSessions creates a new ListSessions use case.
func NewListSessions(sessions domain.SessionRepository) *ListSessions {
	return &ListSessions{sessions: sessions}
}

// Execute lists sessions matching the filter.
func (uc *ListSessions) Execute(_ context.Context, in ListSessionsInput) (*ListSessionsOutput, error) {
	if in.Status != "" && !in.Status.IsValid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown session status %q", in.Status))
	}
	if in.Role != "" && !in.Role.IsValid() {
		return nil, domain.NewValidationError("role", fmt.Sprintf("unknown role %q", in.Role))
	}

	sessions, err := uc.sessions.List(domain.SessionFilter{
		ProjectID: in.ProjectID,
		TaskID:    in.TaskID,
		Status:    in.Status,
		Role:      in.Role,
		Active:    in.Active,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return &ListSessionsOutput{Sessions: sessions}, nil
}
