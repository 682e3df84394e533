package domain

import "testing"

func TestTaskStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   TaskStatus
		to     TaskStatus
		expect bool
	}{
		// From todo
		{"todo -> in_progress", TaskStatusTodo, TaskStatusInProgress, true},
		{"todo -> cancelled", TaskStatusTodo, TaskStatusCancelled, true},
		{"todo -> completed", TaskStatusTodo, TaskStatusCompleted, false},
		{"todo -> blocked", TaskStatusTodo, TaskStatusBlocked, false},

		// From in_progress
		{"in_progress -> completed", TaskStatusInProgress, TaskStatusCompleted, true},
		{"in_progress -> blocked", TaskStatusInProgress, TaskStatusBlocked, true},
		{"in_progress -> cancelled", TaskStatusInProgress, TaskStatusCancelled, true},
		{"in_progress -> todo", TaskStatusInProgress, TaskStatusTodo, false},

		// From blocked
		{"blocked -> in_progress", TaskStatusBlocked, TaskStatusInProgress, true},
		{"blocked -> cancelled", TaskStatusBlocked, TaskStatusCancelled, true},
		{"blocked -> completed", TaskStatusBlocked, TaskStatusCompleted, false},

		// Terminal
		{"completed -> todo", TaskStatusCompleted, TaskStatusTodo, false},
		{"completed -> in_progress", TaskStatusCompleted, TaskStatusInProgress, false},
		{"cancelled -> todo", TaskStatusCancelled, TaskStatusTodo, false},
		{"cancelled -> cancelled", TaskStatusCancelled, TaskStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.CanTransitionTo(tt.to)
			if got != tt.expect {
				t.Errorf("CanTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.expect)
			}
		})
	}
}

func TestTaskStatus_CanTransitionTo_UnknownStatus(t *testing.T) {
	if TaskStatus("unknown").CanTransitionTo(TaskStatusTodo) {
		t.Error("unknown status should not transition")
	}
}

func TestTaskStatus_CanReopenTo(t *testing.T) {
	tests := []struct {
		from   TaskStatus
		to     TaskStatus
		expect bool
	}{
		{TaskStatusCompleted, TaskStatusTodo, true},
		{TaskStatusCancelled, TaskStatusInProgress, true},
		{TaskStatusCompleted, TaskStatusBlocked, false},
		{TaskStatusInProgress, TaskStatusTodo, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanReopenTo(tt.to); got != tt.expect {
				t.Errorf("CanReopenTo() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestTaskStatus_Display(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   string
	}{
		{TaskStatusTodo, "To Do"},
		{TaskStatusInProgress, "In Progress"},
		{TaskStatusBlocked, "Blocked"},
		{TaskStatusCompleted, "Completed"},
		{TaskStatusCancelled, "Cancelled"},
		{TaskStatus("custom"), "custom"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllTaskStatuses(t *testing.T) {
	statuses := AllTaskStatuses()
	if len(statuses) != 5 {
		t.Fatalf("AllTaskStatuses() returned %d statuses, want 5", len(statuses))
	}
	for _, s := range statuses {
		if !s.IsValid() {
			t.Errorf("AllTaskStatuses() contains invalid status %q", s)
		}
	}
}

func TestTaskSessionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   TaskSessionStatus
		to     TaskSessionStatus
		expect bool
	}{
		{"first report may be anything", TaskSessionStatusNone, TaskSessionStatusCompleted, true},
		{"first report must be valid", TaskSessionStatusNone, TaskSessionStatus("nap"), false},
		{"queued -> working", TaskSessionStatusQueued, TaskSessionStatusWorking, true},
		{"queued -> skipped", TaskSessionStatusQueued, TaskSessionStatusSkipped, true},
		{"queued -> completed", TaskSessionStatusQueued, TaskSessionStatusCompleted, false},
		{"working -> needs_input", TaskSessionStatusWorking, TaskSessionStatusNeedsInput, true},
		{"working -> failed", TaskSessionStatusWorking, TaskSessionStatusFailed, true},
		{"needs_input -> working", TaskSessionStatusNeedsInput, TaskSessionStatusWorking, true},
		{"needs_input -> completed", TaskSessionStatusNeedsInput, TaskSessionStatusCompleted, false},
		{"blocked -> working", TaskSessionStatusBlocked, TaskSessionStatusWorking, true},
		{"completed -> working", TaskSessionStatusCompleted, TaskSessionStatusWorking, false},
		{"skipped -> queued", TaskSessionStatusSkipped, TaskSessionStatusQueued, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expect {
				t.Errorf("CanTransitionTo(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expect)
			}
		})
	}
}

func TestTaskSessionStatus_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		name   string
		from   TaskSessionStatus
		to     TaskSessionStatus
		expect bool
	}{
		{"needs_input -> completed", TaskSessionStatusNeedsInput, TaskSessionStatusCompleted, true},
		{"blocked -> failed", TaskSessionStatusBlocked, TaskSessionStatusFailed, true},
		{"queued -> completed", TaskSessionStatusQueued, TaskSessionStatusCompleted, false},
		{"completed -> failed", TaskSessionStatusCompleted, TaskSessionStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanAdvanceTo(tt.to); got != tt.expect {
				t.Errorf("CanAdvanceTo(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expect)
			}
		})
	}
}

func TestSessionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   SessionStatus
		to     SessionStatus
		expect bool
	}{
		{"spawning -> working", SessionStatusSpawning, SessionStatusWorking, true},
		{"spawning -> idle", SessionStatusSpawning, SessionStatusIdle, true},
		{"spawning -> needs_user_input", SessionStatusSpawning, SessionStatusNeedsUserInput, false},
		{"working -> needs_user_input", SessionStatusWorking, SessionStatusNeedsUserInput, true},
		{"needs_user_input -> working", SessionStatusNeedsUserInput, SessionStatusWorking, true},
		{"needs_user_input -> idle", SessionStatusNeedsUserInput, SessionStatusIdle, false},
		{"idle -> stopped", SessionStatusIdle, SessionStatusStopped, true},
		{"completed -> working", SessionStatusCompleted, SessionStatusWorking, false},
		{"failed -> completed", SessionStatusFailed, SessionStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expect {
				t.Errorf("CanTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.expect)
			}
		})
	}
}

func TestQueueItemStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from   QueueItemStatus
		to     QueueItemStatus
		expect bool
	}{
		{QueueItemQueued, QueueItemProcessing, true},
		{QueueItemQueued, QueueItemSkipped, true},
		{QueueItemQueued, QueueItemCompleted, false},
		{QueueItemProcessing, QueueItemCompleted, true},
		{QueueItemProcessing, QueueItemFailed, true},
		{QueueItemProcessing, QueueItemQueued, false},
		{QueueItemCompleted, QueueItemProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expect {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestQueueItemStatus_Reported(t *testing.T) {
	want := map[QueueItemStatus]TaskSessionStatus{
		QueueItemQueued:     TaskSessionStatusQueued,
		QueueItemProcessing: TaskSessionStatusWorking,
		QueueItemCompleted:  TaskSessionStatusCompleted,
		QueueItemFailed:     TaskSessionStatusFailed,
		QueueItemSkipped:    TaskSessionStatusSkipped,
	}
	for item, report := range want {
		if got := item.Reported(); got != report {
			t.Errorf("%s.Reported() = %q, want %q", item, got, report)
		}
	}
}
