package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// UpdateSessionInput contains the parameters for updating a session.
// Only non-nil fields are updated; Metadata keys are merged, an empty value
// removes the key.
type UpdateSessionInput struct {
	Status    *domain.SessionStatus
	Name      *string
	Metadata  map[string]string
	SessionID string
	Reason    string // Recorded on the timeline with a status change
}

// UpdateSessionOutput contains the updated session.
type UpdateSessionOutput struct {
	Session       *domain.Session
	StatusChanged bool
}

// UpdateSession is the use case for updating a session's status, name or metadata.
type UpdateSession struct {
	change *sessionStatusChange
	bus    *event.Bus
}

// NewUpdateSession creates a new UpdateSession use case.
func NewUpdateSession(
	sessions domain.SessionRepository,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	ids domain.IDGenerator,
	clock domain.Clock,
	logger domain.Logger,
) *UpdateSession {
	return &UpdateSession{
		change: &sessionStatusChange{
			sessions:  sessions,
			queueSync: queueSync,
			ids:       ids,
			clock:     clock,
			logger:    logger,
		},
		bus: bus,
	}
}

// Execute applies the update. A terminal status closes the session's queue.
func (uc *UpdateSession) Execute(ctx context.Context, in UpdateSessionInput) (*UpdateSessionOutput, error) {
	if in.Status == nil && in.Name == nil && in.Metadata == nil {
		return nil, domain.ErrNoFieldsToUpdate
	}
	if in.Status != nil && !in.Status.IsValid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown session status %q", *in.Status))
	}

	edit := statusEdit{
		message: in.Reason,
		apply: func(s *domain.Session) {
			if in.Name != nil {
				s.Name = strings.TrimSpace(*in.Name)
			}
			for k, v := range in.Metadata {
				if s.Metadata == nil {
					s.Metadata = make(map[string]string)
				}
				if v == "" {
					delete(s.Metadata, k)
				} else {
					s.Metadata[k] = v
				}
			}
		},
	}
	if in.Status != nil {
		to := *in.Status
		edit.target = func(*domain.Session) (domain.SessionStatus, bool) { return to, false }
	}

	session, changed, err := uc.change.apply(ctx, in.SessionID, edit)
	if err != nil {
		return nil, err
	}

	event.Publish(ctx, uc.bus, event.SessionUpdated, *session)
	return &UpdateSessionOutput{Session: session, StatusChanged: changed}, nil
}
