package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// AppendTimelineEventInput contains one entry for a session's timeline.
type AppendTimelineEventInput struct {
	SessionID string
	Type      domain.TimelineEventType
	Message   string
	TaskID    string // Optional task the entry refers to
}

// AppendTimelineEventOutput contains the session and the stored entry.
type AppendTimelineEventOutput struct {
	Session *domain.Session
	Event   domain.TimelineEvent
}

// AppendTimelineEvent is the use case for recording progress, milestones and
// errors reported by a session.
type AppendTimelineEvent struct {
	sessions domain.SessionRepository
	ids      domain.IDGenerator
	clock    domain.Clock
	bus      *event.Bus
}

// NewAppendTimelineEvent creates a new AppendTimelineEvent use case.
func NewAppendTimelineEvent(sessions domain.SessionRepository, bus *event.Bus, ids domain.IDGenerator, clock domain.Clock) *AppendTimelineEvent {
	return &AppendTimelineEvent{sessions: sessions, bus: bus, ids: ids, clock: clock}
}

// Execute appends the entry and publishes session:updated.
func (uc *AppendTimelineEvent) Execute(ctx context.Context, in AppendTimelineEventInput) (*AppendTimelineEventOutput, error) {
	if !in.Type.IsValid() {
		return nil, domain.NewValidationError("type", fmt.Sprintf("unknown timeline event type %q", in.Type))
	}

	entry := shared.NewTimelineEvent(uc.ids, uc.clock, in.Type, in.Message, in.TaskID)
	session, err := uc.sessions.Update(in.SessionID, func(s *domain.Session) error {
		s.Append(entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append timeline event: %w", err)
	}

	event.Publish(ctx, uc.bus, event.SessionUpdated, *session)
	return &AppendTimelineEventOutput{Session: session, Event: entry}, nil
}
