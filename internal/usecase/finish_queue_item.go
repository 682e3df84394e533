package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// FinishQueueItemInput contains the parameters for completing, failing or
// skipping a queue item.
type FinishQueueItemInput struct {
	SessionID string
	Reason    string // Required for fail, optional otherwise
}

// FinishQueueItemOutput contains the finished item. Unsynced lists tasks
// whose report could not follow the item, for example a task that was
// deleted while it was processing.
type FinishQueueItemOutput struct {
	Item     *domain.QueueItem
	Session  *domain.Session
	Unsynced []string
}

// finishQueueItem moves the processing item (or, for skip, the oldest
// queued one) to a terminal status and syncs the task report. Complete, fail
// and skip differ only in the target status.
// Fields are ordered to minimize memory padding.
type finishQueueItem struct {
	queues    domain.QueueRepository
	sessions  domain.SessionRepository
	clock     domain.Clock
	logger    domain.Logger
	queueSync *shared.QueueSync
	bus       *event.Bus
	to        domain.QueueItemStatus
}

func (uc *finishQueueItem) execute(ctx context.Context, in FinishQueueItemInput) (*FinishQueueItemOutput, error) {
	reason := strings.TrimSpace(in.Reason)
	if uc.to == domain.QueueItemFailed && reason == "" {
		return nil, domain.NewValidationError("reason", "required when failing an item")
	}

	if _, err := shared.GetQueueSession(uc.sessions, in.SessionID); err != nil {
		return nil, err
	}

	var item *domain.QueueItem
	_, err := uc.queues.Update(in.SessionID, func(q *domain.QueueState) error {
		finished, finishErr := q.Finish(uc.to, reason, uc.clock.Now())
		item = finished
		return finishErr
	})
	if err != nil {
		return nil, fmt.Errorf("%s queue item: %w", verbFor(uc.to), err)
	}

	if uc.logger != nil {
		uc.logger.Info(in.SessionID, "queue", fmt.Sprintf("%s %s", item.Status, item.TaskID))
	}

	settled, err := uc.queueSync.Settle(ctx, in.SessionID, []domain.QueueItem{*item})
	if err != nil {
		return nil, err
	}
	if settled.Session != nil {
		event.Publish(ctx, uc.bus, event.SessionUpdated, *settled.Session)
	}
	return &FinishQueueItemOutput{Item: item, Session: settled.Session, Unsynced: settled.Unsynced}, nil
}

func verbFor(s domain.QueueItemStatus) string {
	switch s {
	case domain.QueueItemCompleted:
		return "complete"
	case domain.QueueItemFailed:
		return "fail"
	default:
		return "skip"
	}
}

func newFinishQueueItem(
	to domain.QueueItemStatus,
	queues domain.QueueRepository,
	sessions domain.SessionRepository,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	clock domain.Clock,
	logger domain.Logger,
) finishQueueItem {
	return finishQueueItem{
		to:        to,
		queues:    queues,
		sessions:  sessions,
		queueSync: queueSync,
		bus:       bus,
		clock:     clock,
		logger:    logger,
	}
}

// CompleteQueueItem is the use case for finishing the processing item successfully.
type CompleteQueueItem struct{ finishQueueItem }

// NewCompleteQueueItem creates a new CompleteQueueItem use case.
func NewCompleteQueueItem(
	queues domain.QueueRepository,
	sessions domain.SessionRepository,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	clock domain.Clock,
	logger domain.Logger,
) *CompleteQueueItem {
	return &CompleteQueueItem{newFinishQueueItem(domain.QueueItemCompleted, queues, sessions, queueSync, bus, clock, logger)}
}

// Execute completes the processing item.
func (uc *CompleteQueueItem) Execute(ctx context.Context, in FinishQueueItemInput) (*FinishQueueItemOutput, error) {
	return uc.execute(ctx, in)
}

// FailQueueItem is the use case for finishing the processing item with a failure.
type FailQueueItem struct{ finishQueueItem }

// NewFailQueueItem creates a new FailQueueItem use case.
func NewFailQueueItem(
	queues domain.QueueRepository,
	sessions domain.SessionRepository,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	clock domain.Clock,
	logger domain.Logger,
) *FailQueueItem {
	return &FailQueueItem{newFinishQueueItem(domain.QueueItemFailed, queues, sessions, queueSync, bus, clock, logger)}
}

// Execute fails the processing item. A reason is required.
func (uc *FailQueueItem) Execute(ctx context.Context, in FinishQueueItemInput) (*FinishQueueItemOutput, error) {
	return uc.execute(ctx, in)
}

// SkipQueueItem is the use case for skipping the processing item, or the
// oldest queued item when nothing is processing.
type SkipQueueItem struct{ finishQueueItem }

// NewSkipQueueItem creates a new SkipQueueItem use case.
func NewSkipQueueItem(
	queues domain.QueueRepository,
	sessions domain.SessionRepository,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	clock domain.Clock,
	logger domain.Logger,
) *SkipQueueItem {
	return &SkipQueueItem{newFinishQueueItem(domain.QueueItemSkipped, queues, sessions, queueSync, bus, clock, logger)}
}

// Execute skips an item.
func (uc *SkipQueueItem) Execute(ctx context.Context, in FinishQueueItemInput) (*FinishQueueItemOutput, error) {
	return uc.execute(ctx, in)
}
