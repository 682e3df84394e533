package domain

import (
	"slices"
	"time"
)

// QueueItemStatus is the state of one entry in a session's work queue.
type QueueItemStatus string

const (
	QueueItemQueued     QueueItemStatus = "queued"
	QueueItemProcessing QueueItemStatus = "processing"
	QueueItemCompleted  QueueItemStatus = "completed"
	QueueItemFailed     QueueItemStatus = "failed"
	QueueItemSkipped    QueueItemStatus = "skipped"
)

// queueItemTransitions: queued → processing → {completed | failed | skipped}, or queued → skipped.
var queueItemTransitions = map[QueueItemStatus][]QueueItemStatus{
	QueueItemQueued:     {QueueItemProcessing, QueueItemSkipped},
	QueueItemProcessing: {QueueItemCompleted, QueueItemFailed, QueueItemSkipped},
	QueueItemCompleted:  {},
	QueueItemFailed:     {},
	QueueItemSkipped:    {},
}

// CanTransitionTo returns true if the item can move to the target status.
func (s QueueItemStatus) CanTransitionTo(target QueueItemStatus) bool {
	return allowed(queueItemTransitions, s, target)
}

// IsTerminal returns true for finished items.
func (s QueueItemStatus) IsTerminal() bool {
	return s == QueueItemCompleted || s == QueueItemFailed || s == QueueItemSkipped
}

// IsValid returns true if the status is known.
func (s QueueItemStatus) IsValid() bool {
	_, ok := queueItemTransitions[s]
	return ok
}

// Reported maps an item outcome to the matching task report.
func (s QueueItemStatus) Reported() TaskSessionStatus {
	switch s {
	case QueueItemQueued:
		return TaskSessionStatusQueued
	case QueueItemProcessing:
		return TaskSessionStatusWorking
	case QueueItemCompleted:
		return TaskSessionStatusCompleted
	case QueueItemFailed:
		return TaskSessionStatusFailed
	case QueueItemSkipped:
		return TaskSessionStatusSkipped
	default:
		return TaskSessionStatusNone
	}
}

// TimelineType maps an item outcome to the session timeline entry type.
func (s QueueItemStatus) TimelineType() TimelineEventType {
	switch s {
	case QueueItemQueued:
		return TimelineTaskAdded
	case QueueItemProcessing:
		return TimelineTaskStarted
	case QueueItemCompleted:
		return TimelineTaskCompleted
	case QueueItemFailed:
		return TimelineTaskFailed
	default:
		return TimelineTaskSkipped
	}
}

// QueueItem references one task in a queue.
type QueueItem struct {
	AddedAt     time.Time       `json:"addedAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	TaskID      string          `json:"taskId"`
	Status      QueueItemStatus `json:"status"`
	Reason      string          `json:"reason,omitempty"`
}

// QueueState is the FIFO work queue of one queue-strategy session.
// At most one item may be processing at any time.
type QueueState struct {
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	SessionID string      `json:"sessionId"`
	Items     []QueueItem `json:"items"`
}

// NewQueueState creates a queue pre-loaded with taskIDs in submission order.
func NewQueueState(sessionID string, taskIDs []string, now time.Time) *QueueState {
	q := &QueueState{
		SessionID: sessionID,
		Items:     make([]QueueItem, 0, len(taskIDs)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, id := range taskIDs {
		q.Items = append(q.Items, QueueItem{TaskID: id, Status: QueueItemQueued, AddedAt: now})
	}
	return q
}

// Processing returns the index of the processing item, or -1.
func (q *QueueState) Processing() int {
	return slices.IndexFunc(q.Items, func(it QueueItem) bool { return it.Status == QueueItemProcessing })
}

// NextQueued returns the index of the oldest queued item, or -1.
func (q *QueueState) NextQueued() int {
	return slices.IndexFunc(q.Items, func(it QueueItem) bool { return it.Status == QueueItemQueued })
}

// IsPending returns true if taskID has a queued or processing item.
func (q *QueueState) IsPending(taskID string) bool {
	return slices.ContainsFunc(q.Items, func(it QueueItem) bool {
		return it.TaskID == taskID && !it.Status.IsTerminal()
	})
}

// Claim flips the oldest queued item to processing in one step. It refuses
// when another item is already processing. Returns ErrQueueEmpty when
// nothing is queued.
func (q *QueueState) Claim(now time.Time) (*QueueItem, error) {
	if q.Processing() >= 0 {
		return nil, ErrQueueBusy
	}
	i := q.NextQueued()
	if i < 0 {
		return nil, ErrQueueEmpty
	}
	if err := q.move(i, QueueItemProcessing, "", now); err != nil {
		return nil, err
	}
	item := q.Items[i]
	return &item, nil
}

// Finish moves the processing item to a terminal status. For skip with no
// processing item the oldest queued item is skipped instead.
func (q *QueueState) Finish(to QueueItemStatus, reason string, now time.Time) (*QueueItem, error) {
	if !to.IsTerminal() {
		return nil, NewTransitionError("queue item", QueueItemProcessing, to)
	}
	i := q.Processing()
	if i < 0 && to == QueueItemSkipped {
		i = q.NextQueued()
		if i < 0 {
			return nil, ErrQueueEmpty
		}
	}
	if i < 0 {
		return nil, ErrNoProcessingItem
	}
	if err := q.move(i, to, reason, now); err != nil {
		return nil, err
	}
	item := q.Items[i]
	return &item, nil
}

// Push appends a queued item for taskID.
func (q *QueueState) Push(taskID string, now time.Time) (*QueueItem, error) {
	if q.IsPending(taskID) {
		return nil, ErrAlreadyQueued
	}
	q.Items = append(q.Items, QueueItem{TaskID: taskID, Status: QueueItemQueued, AddedAt: now})
	q.UpdatedAt = now
	item := q.Items[len(q.Items)-1]
	return &item, nil
}

// Drain closes every unfinished item: queued items are skipped and a
// processing item is failed with reason. It returns the items it changed.
func (q *QueueState) Drain(reason string, now time.Time) []QueueItem {
	var changed []QueueItem
	for i := range q.Items {
		var to QueueItemStatus
		switch q.Items[i].Status {
		case QueueItemQueued:
			to = QueueItemSkipped
		case QueueItemProcessing:
			to = QueueItemFailed
		default:
			continue
		}
		if err := q.move(i, to, reason, now); err == nil {
			changed = append(changed, q.Items[i])
		}
	}
	return changed
}

// SkipTask skips the queued and processing items for taskID, so a task that
// leaves the session no longer holds the queue. It returns the items it changed.
func (q *QueueState) SkipTask(taskID, reason string, now time.Time) []QueueItem {
	var changed []QueueItem
	for i := range q.Items {
		if q.Items[i].TaskID != taskID || q.Items[i].Status.IsTerminal() {
			continue
		}
		if err := q.move(i, QueueItemSkipped, reason, now); err == nil {
			changed = append(changed, q.Items[i])
		}
	}
	return changed
}

// Counts returns the number of items per status.
func (q *QueueState) Counts() map[QueueItemStatus]int {
	counts := make(map[QueueItemStatus]int)
	for _, it := range q.Items {
		counts[it.Status]++
	}
	return counts
}

func (q *QueueState) move(i int, to QueueItemStatus, reason string, now time.Time) error {
	it := &q.Items[i]
	if !it.Status.CanTransitionTo(to) {
		return NewTransitionError("queue item", it.Status, to)
	}
	it.Status = to
	if reason != "" {
		it.Reason = reason
	}
	stamp := now
	if to == QueueItemProcessing {
		it.StartedAt = &stamp
	} else if to.IsTerminal() {
		it.CompletedAt = &stamp
	}
	q.UpdatedAt = now
	return nil
}

// Clone returns a deep copy of the queue.
func (q *QueueState) Clone() *QueueState {
	c := *q
	c.Items = make([]QueueItem, len(q.Items))
	for i, it := range q.Items {
		it.StartedAt = cloneTime(it.StartedAt)
		it.CompletedAt = cloneTime(it.CompletedAt)
		c.Items[i] = it
	}
	return &c
}
