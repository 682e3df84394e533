package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// ClaimQueueItemInput contains the parameters for claiming work.
type ClaimQueueItemInput struct {
	SessionID string
}

// ClaimQueueItemOutput contains the claimed item. Empty is true, with a nil
// Item, when nothing is queued; that is a normal answer, not an error.
type ClaimQueueItemOutput struct {
	Item    *domain.QueueItem
	Task    *domain.Task
	Session *domain.Session
	Empty   bool
}

// ClaimQueueItem is the use case for starting the next queued item. The
// check for an already-processing item and the flip to processing happen in
// one store update, so two racing claims cannot both succeed.
// Fields are ordered to minimize memory padding.
type ClaimQueueItem struct {
	queues    domain.QueueRepository
	sessions  domain.SessionRepository
	tasks     domain.TaskRepository
	clock     domain.Clock
	logger    domain.Logger
	queueSync *shared.QueueSync
	bus       *event.Bus
}

// NewClaimQueueItem creates a new ClaimQueueItem use case.
func NewClaimQueueItem(
	queues domain.QueueRepository,
	sessions domain.SessionRepository,
	tasks domain.TaskRepository,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	clock domain.Clock,
	logger domain.Logger,
) *ClaimQueueItem {
	return &ClaimQueueItem{
		queues:    queues,
		sessions:  sessions,
		tasks:     tasks,
		queueSync: queueSync,
		bus:       bus,
		clock:     clock,
		logger:    logger,
	}
}

// Execute claims the oldest queued item.
func (uc *ClaimQueueItem) Execute(ctx context.Context, in ClaimQueueItemInput) (*ClaimQueueItemOutput, error) {
	session, err := shared.GetQueueSession(uc.sessions, in.SessionID)
	if err != nil {
		return nil, err
	}

	var item *domain.QueueItem
	_, err = uc.queues.Update(in.SessionID, func(q *domain.QueueState) error {
		claimed, claimErr := q.Claim(uc.clock.Now())
		item = claimed
		return claimErr
	})
	if errors.Is(err, domain.ErrQueueEmpty) {
		return &ClaimQueueItemOutput{Session: session, Empty: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim queue item: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info(in.SessionID, "queue", fmt.Sprintf("claimed %s", item.TaskID))
	}

	if _, err := uc.queueSync.Settle(ctx, in.SessionID, []domain.QueueItem{*item}); err != nil {
		return nil, err
	}

	// A session that went idle waiting for work is busy again.
	now := uc.clock.Now()
	session, err = uc.sessions.Update(in.SessionID, func(s *domain.Session) error {
		if s.Status == domain.SessionStatusIdle {
			return s.ApplyStatus(domain.SessionStatusWorking, now)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	event.Publish(ctx, uc.bus, event.SessionUpdated, *session)

	task, err := uc.tasks.Get(item.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &ClaimQueueItemOutput{Item: item, Task: task, Session: session}, nil
}
