package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
)

// QueueSync keeps queue items, task reports and the session timeline in step.
// Every item outcome goes through Settle, so complete, fail and skip all
// synchronize the task report the same way.
// Fields are ordered to minimize memory padding.
type QueueSync struct {
	queues   domain.QueueRepository
	sessions domain.SessionRepository
	clock    domain.Clock
	ids      domain.IDGenerator
	logger   domain.Logger
	reporter *Reporter
}

// NewQueueSync creates a QueueSync.
func NewQueueSync(
	queues domain.QueueRepository,
	sessions domain.SessionRepository,
	reporter *Reporter,
	clock domain.Clock,
	ids domain.IDGenerator,
	logger domain.Logger,
) *QueueSync {
	return &QueueSync{
		queues:   queues,
		sessions: sessions,
		reporter: reporter,
		clock:    clock,
		ids:      ids,
		logger:   logger,
	}
}

// Settled is the outcome of Settle.
type Settled struct {
	// Session is nil if the session no longer exists.
	Session *domain.Session
	// Unsynced lists the tasks whose report could not follow their item.
	Unsynced []string
}

// Settle synchronizes the task reports for changed items and records them on
// the session timeline. Report failures do not fail the call, since the queue
// mutation has already committed; they are logged and listed in Unsynced.
func (q *QueueSync) Settle(ctx context.Context, sessionID string, items []domain.QueueItem) (*Settled, error) {
	out := &Settled{}
	if len(items) == 0 {
		return out, nil
	}

	entries := make([]domain.TimelineEvent, 0, len(items))
	for _, it := range items {
		if _, err := q.reporter.Sync(ctx, it.TaskID, sessionID, it.Status.Reported()); err != nil {
			out.Unsynced = append(out.Unsynced, it.TaskID)
			if q.logger != nil {
				q.logger.Warn(sessionID, "queue", fmt.Sprintf("task %s report not synced to %s: %v", it.TaskID, it.Status.Reported(), err))
			}
		}
		msg := string(it.Status)
		if it.Reason != "" {
			msg += ": " + it.Reason
		}
		entries = append(entries, NewTimelineEvent(q.ids, q.clock, it.Status.TimelineType(), msg, it.TaskID))
	}

	session, err := q.sessions.Update(sessionID, func(s *domain.Session) error {
		for _, e := range entries {
			s.Append(e)
		}
		return nil
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record queue timeline: %w", err)
	}
	out.Session = session
	return out, nil
}

// Drain closes a session's queue: queued items are skipped, a processing item
// is failed, task reports follow, and the queue is deleted. A session without
// a queue is left alone.
func (q *QueueSync) Drain(ctx context.Context, sessionID, reason string) error {
	now := q.clock.Now()
	var changed []domain.QueueItem
	_, err := q.queues.Update(sessionID, func(qs *domain.QueueState) error {
		changed = qs.Drain(reason, now)
		return nil
	})
	if errors.Is(err, domain.ErrQueueNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("drain queue: %w", err)
	}

	if _, err := q.Settle(ctx, sessionID, changed); err != nil {
		return err
	}
	if err := q.queues.Delete(sessionID); err != nil && !errors.Is(err, domain.ErrQueueNotFound) {
		return fmt.Errorf("delete queue: %w", err)
	}
	if q.logger != nil {
		q.logger.Info(sessionID, "queue", fmt.Sprintf("queue closed (%s), %d items finalized", reason, len(changed)))
	}
	return nil
}

// SkipTask skips taskID's pending items in the session's queue, including a
// processing one, and syncs the task report to skipped.
func (q *QueueSync) SkipTask(ctx context.Context, sessionID, taskID, reason string) error {
	changed, err := q.skip(sessionID, taskID, reason)
	if err != nil || len(changed) == 0 {
		return err
	}
	_, err = q.Settle(ctx, sessionID, changed)
	return err
}

// Forget skips taskID's pending items without touching the task. Used when
// the task itself is being deleted.
func (q *QueueSync) Forget(sessionID, taskID, reason string) error {
	_, err := q.skip(sessionID, taskID, reason)
	return err
}

func (q *QueueSync) skip(sessionID, taskID, reason string) ([]domain.QueueItem, error) {
	now := q.clock.Now()
	var changed []domain.QueueItem
	_, err := q.queues.Update(sessionID, func(qs *domain.QueueState) error {
		changed = qs.SkipTask(taskID, reason, now)
		return nil
	})
	if errors.Is(err, domain.ErrQueueNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("skip queued task: %w", err)
	}
	return changed, nil
}
