package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTask_ApplyStatus_Timestamps(t *testing.T) {
	task := &Task{Status: TaskStatusTodo}

	require.NoError(t, task.ApplyStatus(TaskStatusInProgress, epoch))
	require.NotNil(t, task.StartedAt)
	assert.Equal(t, epoch, *task.StartedAt)

	require.NoError(t, task.ApplyStatus(TaskStatusBlocked, epoch.Add(time.Hour)))
	require.NoError(t, task.ApplyStatus(TaskStatusInProgress, epoch.Add(2*time.Hour)))
	assert.Equal(t, epoch, *task.StartedAt, "StartedAt is set once")
	assert.Nil(t, task.CompletedAt)

	require.NoError(t, task.ApplyStatus(TaskStatusCompleted, epoch.Add(3*time.Hour)))
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, epoch.Add(3*time.Hour), *task.CompletedAt)
}

func TestTask_ApplyStatus_Rejected(t *testing.T) {
	task := &Task{Status: TaskStatusTodo}

	err := task.ApplyStatus(TaskStatusCompleted, epoch)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "todo", te.From)
	assert.Equal(t, "completed", te.To)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, TaskStatusTodo, task.Status)

	assert.ErrorIs(t, task.ApplyStatus("later", epoch), ErrValidation)
}

func TestTask_Reopen(t *testing.T) {
	task := &Task{Status: TaskStatusTodo}
	require.NoError(t, task.ApplyStatus(TaskStatusInProgress, epoch))
	require.NoError(t, task.ApplyStatus(TaskStatusCompleted, epoch.Add(time.Hour)))

	require.NoError(t, task.Reopen(TaskStatusTodo, epoch.Add(2*time.Hour)))

	assert.Equal(t, TaskStatusTodo, task.Status)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, epoch, *task.StartedAt)
	assert.ErrorIs(t, task.Reopen(TaskStatusTodo, epoch), ErrInvalidTransition, "only terminal tasks reopen")
}

func TestTask_Report_PerSession(t *testing.T) {
	task := &Task{}

	require.NoError(t, task.Report("s1", TaskSessionStatusWorking, false, epoch))
	require.NoError(t, task.Report("s1", TaskSessionStatusCompleted, false, epoch))
	require.NoError(t, task.Report("s2", TaskSessionStatusWorking, false, epoch))

	assert.Equal(t, TaskSessionStatusCompleted, task.ReportedStatus("s1"))
	assert.Equal(t, TaskSessionStatusWorking, task.ReportedStatus("s2"))
	assert.Equal(t, TaskSessionStatusWorking, task.SessionStatus, "aggregate is last writer")

	err := task.Report("s1", TaskSessionStatusWorking, false, epoch)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, TaskSessionStatusCompleted, task.ReportedStatus("s1"))
}

func TestTask_Report_Advance(t *testing.T) {
	task := &Task{}
	require.NoError(t, task.Report("s1", TaskSessionStatusNeedsInput, false, epoch))

	require.Error(t, task.Report("s1", TaskSessionStatusCompleted, false, epoch))
	require.NoError(t, task.Report("s1", TaskSessionStatusCompleted, true, epoch))
}

func TestTask_Report_WithoutSession(t *testing.T) {
	task := &Task{SessionStatus: TaskSessionStatusWorking}

	require.NoError(t, task.Report("", TaskSessionStatusBlocked, false, epoch))

	assert.Equal(t, TaskSessionStatusBlocked, task.SessionStatus)
	assert.Empty(t, task.SessionStatuses)
}

func TestTask_ClearReport(t *testing.T) {
	task := &Task{}
	require.NoError(t, task.Report("s1", TaskSessionStatusCompleted, false, epoch))

	task.ClearReport("s1")

	assert.Equal(t, TaskSessionStatusNone, task.ReportedStatus("s1"))
	require.NoError(t, task.Report("s1", TaskSessionStatusQueued, false, epoch))
}

func TestTask_Sessions(t *testing.T) {
	task := &Task{}

	assert.True(t, task.AddSession("s1"))
	assert.False(t, task.AddSession("s1"))
	assert.True(t, task.HasSession("s1"))
	assert.True(t, task.RemoveSession("s1"))
	assert.False(t, task.RemoveSession("s1"))
	assert.Empty(t, task.SessionIDs)
}

func TestTask_Clone(t *testing.T) {
	parent := "task_0"
	task := &Task{ID: "task_1", ParentID: &parent, SessionIDs: []string{"s1"}, SessionStatuses: map[string]TaskSessionStatus{"s1": TaskSessionStatusWorking}}

	c := task.Clone()
	c.SessionIDs[0] = "s2"
	c.SessionStatuses["s1"] = TaskSessionStatusFailed
	*c.ParentID = "task_9"

	assert.Equal(t, "s1", task.SessionIDs[0])
	assert.Equal(t, TaskSessionStatusWorking, task.SessionStatuses["s1"])
	assert.Equal(t, "task_0", *task.ParentID)
	assert.NotNil(t, (&Task{}).Clone().SessionIDs)
}

func TestTaskFilter_Match(t *testing.T) {
	parent := "task_0"
	child := &Task{ProjectID: "p1", ParentID: &parent, Status: TaskStatusTodo, SessionIDs: []string{"s1"}}
	root := &Task{ProjectID: "p1", Status: TaskStatusCompleted}

	tests := []struct {
		name   string
		filter TaskFilter
		task   *Task
		want   bool
	}{
		{"empty matches", TaskFilter{}, child, true},
		{"project", TaskFilter{ProjectID: "p2"}, child, false},
		{"status", TaskFilter{Status: TaskStatusCompleted}, root, true},
		{"session", TaskFilter{SessionID: "s1"}, root, false},
		{"root only", TaskFilter{RootOnly: true}, child, false},
		{"parent", TaskFilter{ParentID: &parent}, child, true},
		{"parent excludes roots", TaskFilter{ParentID: &parent}, root, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.task))
		})
	}
}
