package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// sessionStatusChange moves a session through its state machine. When the
// session ends its queue is drained before session:updated is published, so
// subscribers see the final timeline.
// Fields are ordered to minimize memory padding.
type sessionStatusChange struct {
	sessions  domain.SessionRepository
	ids       domain.IDGenerator
	clock     domain.Clock
	logger    domain.Logger
	queueSync *shared.QueueSync
}

// statusEdit is one status change request evaluated under the store lock.
type statusEdit struct {
	target  func(*domain.Session) (domain.SessionStatus, bool) // returns target and whether to skip
	entry   domain.TimelineEventType                           // overrides the derived entry type
	message string
	apply   func(*domain.Session) // extra field edits (name, metadata)
}

// apply runs edit atomically. It returns the session and whether its status changed.
func (c *sessionStatusChange) apply(ctx context.Context, sessionID string, edit statusEdit) (*domain.Session, bool, error) {
	now := c.clock.Now()
	var from domain.SessionStatus
	changed := false
	session, err := c.sessions.Update(sessionID, func(s *domain.Session) error {
		changed = false
		if edit.apply != nil {
			edit.apply(s)
		}
		if edit.target == nil {
			return nil
		}
		to, skip := edit.target(s)
		if skip || to == s.Status {
			return nil
		}
		from = s.Status
		if err := s.ApplyStatus(to, now); err != nil {
			return err
		}
		changed = true
		typ := edit.entry
		if typ == "" {
			typ = domain.TimelineStatusChange
			if to.IsTerminal() {
				typ = domain.TimelineSessionEnded
			}
		}
		msg := fmt.Sprintf("%s -> %s", from, to)
		if edit.message != "" {
			msg += ": " + edit.message
		}
		s.Append(shared.NewTimelineEvent(c.ids, c.clock, typ, msg, ""))
		if to.IsTerminal() {
			s.QueueID = ""
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("update session: %w", err)
	}

	if changed {
		if c.logger != nil {
			c.logger.Info(sessionID, "session", fmt.Sprintf("status %s -> %s", from, session.Status))
		}
		if session.Status.IsTerminal() && session.Strategy == domain.StrategyQueue {
			if err := c.queueSync.Drain(ctx, sessionID, session.DetachReason()); err != nil {
				return nil, true, err
			}
			if session, err = shared.GetSession(c.sessions, sessionID); err != nil {
				return nil, true, err
			}
		}
	}
	return session, changed, nil
}
