package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// PushQueueItemInput contains the parameters for handing a session more work.
type PushQueueItemInput struct {
	SessionID string
	TaskID    string
}

// PushQueueItemOutput contains the appended item.
type PushQueueItemOutput struct {
	Item    *domain.QueueItem
	Queue   *domain.QueueState
	Session *domain.Session
}

// PushQueueItem is the use case for appending a task to a live queue. The
// task is associated with the session first if it is not already.
// Fields are ordered to minimize memory padding.
type PushQueueItem struct {
	queues    domain.QueueRepository
	sessions  domain.SessionRepository
	clock     domain.Clock
	logger    domain.Logger
	linker    *shared.Linker
	queueSync *shared.QueueSync
	bus       *event.Bus
}

// NewPushQueueItem creates a new PushQueueItem use case.
func NewPushQueueItem(
	queues domain.QueueRepository,
	sessions domain.SessionRepository,
	linker *shared.Linker,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	clock domain.Clock,
	logger domain.Logger,
) *PushQueueItem {
	return &PushQueueItem{
		queues:    queues,
		sessions:  sessions,
		linker:    linker,
		queueSync: queueSync,
		bus:       bus,
		clock:     clock,
		logger:    logger,
	}
}

// Execute appends a queued item for the task.
func (uc *PushQueueItem) Execute(ctx context.Context, in PushQueueItemInput) (*PushQueueItemOutput, error) {
	if in.TaskID == "" {
		return nil, domain.NewValidationError("taskId", "cannot be empty")
	}
	if _, err := shared.GetQueueSession(uc.sessions, in.SessionID); err != nil {
		return nil, err
	}
	queue, err := shared.GetQueue(uc.queues, in.SessionID)
	if err != nil {
		return nil, err
	}
	if queue.IsPending(in.TaskID) {
		return nil, fmt.Errorf("%s: %w", in.TaskID, domain.ErrAlreadyQueued)
	}

	if _, err := uc.linker.Link(ctx, in.TaskID, in.SessionID); err != nil {
		return nil, err
	}

	var item *domain.QueueItem
	queue, err = uc.queues.Update(in.SessionID, func(q *domain.QueueState) error {
		pushed, pushErr := q.Push(in.TaskID, uc.clock.Now())
		item = pushed
		return pushErr
	})
	if err != nil {
		return nil, fmt.Errorf("push queue item: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info(in.SessionID, "queue", fmt.Sprintf("pushed %s", in.TaskID))
	}

	settled, err := uc.queueSync.Settle(ctx, in.SessionID, []domain.QueueItem{*item})
	if err != nil {
		return nil, err
	}
	if settled.Session != nil {
		event.Publish(ctx, uc.bus, event.SessionUpdated, *settled.Session)
	}
	return &PushQueueItemOutput{Item: item, Queue: queue, Session: settled.Session}, nil
}
