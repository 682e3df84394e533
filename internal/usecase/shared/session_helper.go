package shared

import (
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
)

// RequireActiveSession returns domain.ErrSessionEnded if the session reached
// a terminal status. This is used by usecases that hand new work to a
// session (link, push, claim).
func RequireActiveSession(session *domain.Session) error {
	if session.Status.IsTerminal() {
		return fmt.Errorf("session %s is %s: %w", session.ID, session.Status, domain.ErrSessionEnded)
	}
	return nil
}

// RequireQueueSession returns domain.ErrNotQueueStrategy unless the session
// follows the queue strategy.
func RequireQueueSession(session *domain.Session) error {
	if session.Strategy != domain.StrategyQueue {
		return fmt.Errorf("session %s uses %s: %w", session.ID, session.Strategy, domain.ErrNotQueueStrategy)
	}
	return nil
}

// GetQueueSession retrieves a session that owns a queue and is still active.
func GetQueueSession(repo domain.SessionRepository, sessionID string) (*domain.Session, error) {
	session, err := GetSession(repo, sessionID)
	if err != nil {
		return nil, err
	}
	if err := RequireQueueSession(session); err != nil {
		return nil, err
	}
	if err := RequireActiveSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// NewTimelineEvent builds a timeline entry stamped with the clock's time.
func NewTimelineEvent(ids domain.IDGenerator, clock domain.Clock, typ domain.TimelineEventType, msg, taskID string) domain.TimelineEvent {
	return domain.TimelineEvent{
		ID:        ids.NewID("evt"),
		Type:      typ,
		Message:   msg,
		TaskID:    taskID,
		Timestamp: clock.Now(),
	}
}
