package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueState_ClaimFinish(t *testing.T) {
	q := NewQueueState("s1", []string{"t1", "t2"}, epoch)

	item, err := q.Claim(epoch)
	require.NoError(t, err)
	assert.Equal(t, "t1", item.TaskID)
	assert.Equal(t, QueueItemProcessing, item.Status)
	assert.NotNil(t, item.StartedAt)

	_, err = q.Claim(epoch)
	assert.ErrorIs(t, err, ErrQueueBusy)

	item, err = q.Finish(QueueItemCompleted, "", epoch)
	require.NoError(t, err)
	assert.Equal(t, QueueItemCompleted, item.Status)
	assert.NotNil(t, item.CompletedAt)

	item, err = q.Claim(epoch)
	require.NoError(t, err)
	assert.Equal(t, "t2", item.TaskID)
	_, err = q.Finish(QueueItemFailed, "boom", epoch)
	require.NoError(t, err)

	_, err = q.Claim(epoch)
	assert.ErrorIs(t, err, ErrQueueEmpty)
	assert.Equal(t, "boom", q.Items[1].Reason)
}

func TestQueueState_Finish(t *testing.T) {
	tests := []struct {
		name     string
		claim    bool
		to       QueueItemStatus
		wantErr  error
		wantTask string
	}{
		{"complete without processing", false, QueueItemCompleted, ErrNoProcessingItem, ""},
		{"skip falls back to oldest queued", false, QueueItemSkipped, nil, "t1"},
		{"skip prefers processing", true, QueueItemSkipped, nil, "t1"},
		{"non-terminal target", true, QueueItemQueued, ErrInvalidTransition, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueueState("s1", []string{"t1", "t2"}, epoch)
			if tt.claim {
				_, err := q.Claim(epoch)
				require.NoError(t, err)
			}

			item, err := q.Finish(tt.to, "", epoch)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTask, item.TaskID)
		})
	}
}

func TestQueueState_Push(t *testing.T) {
	q := NewQueueState("s1", []string{"t1"}, epoch)

	_, err := q.Push("t1", epoch)
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	item, err := q.Push("t2", epoch)
	require.NoError(t, err)
	assert.Equal(t, QueueItemQueued, item.Status)

	_, err = q.Claim(epoch)
	require.NoError(t, err)
	_, err = q.Finish(QueueItemCompleted, "", epoch)
	require.NoError(t, err)
	_, err = q.Push("t1", epoch)
	assert.NoError(t, err, "finished tasks may be queued again")
	assert.Len(t, q.Items, 3)
}

func TestQueueState_Drain(t *testing.T) {
	q := NewQueueState("s1", []string{"t1", "t2", "t3"}, epoch)
	_, err := q.Claim(epoch)
	require.NoError(t, err)
	_, err = q.Finish(QueueItemCompleted, "", epoch)
	require.NoError(t, err)
	_, err = q.Claim(epoch)
	require.NoError(t, err)

	changed := q.Drain("session failed", epoch)

	require.Len(t, changed, 2)
	assert.Equal(t, QueueItemFailed, changed[0].Status)
	assert.Equal(t, QueueItemSkipped, changed[1].Status)
	assert.Equal(t, QueueItemCompleted, q.Items[0].Status)
	for _, it := range changed {
		assert.Equal(t, "session failed", it.Reason)
	}
	assert.Empty(t, q.Drain("again", epoch))
}

func TestQueueState_SkipTask(t *testing.T) {
	q := NewQueueState("s1", []string{"t1", "t2"}, epoch)
	_, err := q.Claim(epoch)
	require.NoError(t, err)

	changed := q.SkipTask("t1", "removed", epoch)
	require.Len(t, changed, 1, "a processing item is released too")
	assert.Equal(t, QueueItemSkipped, changed[0].Status)
	assert.Equal(t, "removed", changed[0].Reason)

	next, err := q.Claim(epoch)
	require.NoError(t, err, "queue no longer busy")
	assert.Equal(t, "t2", next.TaskID)

	changed = q.SkipTask("t2", "removed", epoch)
	require.Len(t, changed, 1)
	assert.False(t, q.IsPending("t2"))
	assert.Empty(t, q.SkipTask("t2", "again", epoch))
}

func TestQueueState_CloneIsDeep(t *testing.T) {
	q := NewQueueState("s1", []string{"t1"}, epoch)
	_, err := q.Claim(epoch)
	require.NoError(t, err)

	c := q.Clone()
	c.Items[0].Status = QueueItemFailed
	*c.Items[0].StartedAt = epoch.AddDate(1, 0, 0)

	assert.Equal(t, QueueItemProcessing, q.Items[0].Status)
	assert.Equal(t, epoch, *q.Items[0].StartedAt)
	assert.Equal(t, map[QueueItemStatus]int{QueueItemProcessing: 1}, q.Counts())
}
