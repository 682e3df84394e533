package usecase

import (
	"context"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// PeekQueueInput contains the parameters for peeking at a queue.
type PeekQueueInput struct {
	SessionID string
}

// PeekQueueOutput contains the next queued item, if any.
type PeekQueueOutput struct {
	Item       *domain.QueueItem // nil when nothing is queued
	Task       *domain.Task      // The item's task, nil if it was deleted
	Processing *domain.QueueItem // The item currently being worked, if any
}

// PeekQueue is the use case for a read-only look at the next queued item.
type PeekQueue struct {
	queues domain.QueueRepository
	tasks  domain.TaskRepository
}

// NewPeekQueue creates a new PeekQueue use case.
func NewPeekQueue(queues domain.QueueRepository, tasks domain.TaskRepository) *PeekQueue {
	return &PeekQueue{queues: queues, tasks: tasks}
}

// Execute returns the oldest queued item without changing anything.
func (uc *PeekQueue) Execute(_ context.Context, in PeekQueueInput) (*PeekQueueOutput, error) {
	queue, err := shared.GetQueue(uc.queues, in.SessionID)
	if err != nil {
		return nil, err
	}

	out := &PeekQueueOutput{}
	if i := queue.Processing(); i >= 0 {
		item := queue.Items[i]
		out.Processing = &item
	}
	i := queue.NextQueued()
	if i < 0 {
		return out, nil
	}
	item := queue.Items[i]
	out.Item = &item
	task, err := uc.tasks.Get(item.TaskID)
	if err != nil {
		return nil, err
	}
	out.Task = task
	return out, nil
}
