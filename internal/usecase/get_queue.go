package usecase

import (
	"context"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// GetQueueInput contains the parameters for fetching a queue.
type GetQueueInput struct {
	SessionID string
}

// GetQueueOutput contains the full queue and per-status item counts.
type GetQueueOutput struct {
	Queue  *domain.QueueState
	Counts map[domain.QueueItemStatus]int
}

// GetQueue is the use case for viewing a session's whole queue.
type GetQueue struct {
	queues domain.QueueRepository
}

// NewGetQueue creates a new GetQueue use case.
func NewGetQueue(queues domain.QueueRepository) *GetQueue {
	return &GetQueue{queues: queues}
}

// Execute returns the queue or domain.ErrQueueNotFound.
func (uc *GetQueue) Execute(_ context.Context, in GetQueueInput) (*GetQueueOutput, error) {
	queue, err := shared.GetQueue(uc.queues, in.SessionID)
	if err != nil {
		return nil, err
	}
	return &GetQueueOutput{Queue: queue, Counts: queue.Counts()}, nil
}
