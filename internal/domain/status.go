package domain

// TaskStatus represents the authoritative lifecycle state of a task.
// Only operators and orchestrator-role sessions may change it.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"        // Created, not started
	TaskStatusInProgress TaskStatus = "in_progress" // Being worked on
	TaskStatusBlocked    TaskStatus = "blocked"     // Waiting on something external
	TaskStatusCompleted  TaskStatus = "completed"   // Done
	TaskStatusCancelled  TaskStatus = "cancelled"   // Abandoned
)

// AllTaskStatuses returns all valid task status values.
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusTodo,
		TaskStatusInProgress,
		TaskStatusBlocked,
		TaskStatusCompleted,
		TaskStatusCancelled,
	}
}

// taskTransitions defines the allowed task status transitions.
// Flow: todo → in_progress → completed
//
//	in_progress ⇄ blocked
//	any non-terminal → cancelled
//
// Terminal states have no outgoing edges; leaving them requires an explicit reopen.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusTodo:       {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusBlocked, TaskStatusCancelled},
	TaskStatusBlocked:    {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusCompleted:  {},
	TaskStatusCancelled:  {},
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	return allowed(taskTransitions, s, target)
}

// IsTerminal returns true if the status is a terminal state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// CanReopenTo returns true if a terminal task may be reopened into target.
func (s TaskStatus) CanReopenTo(target TaskStatus) bool {
	return s.IsTerminal() && (target == TaskStatusTodo || target == TaskStatusInProgress)
}

// IsValid returns true if the status is a known valid value.
func (s TaskStatus) IsValid() bool {
	_, ok := taskTransitions[s]
	return ok
}

// Display returns a human-readable representation of the status.
func (s TaskStatus) Display() string {
	switch s {
	case TaskStatusTodo:
		return "To Do"
	case TaskStatusInProgress:
		return "In Progress"
	case TaskStatusBlocked:
		return "Blocked"
	case TaskStatusCompleted:
		return "Completed"
	case TaskStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// TaskSessionStatus is a worker's own report of its progress on a task.
// It is advisory and never changes the authoritative TaskStatus.
type TaskSessionStatus string

const (
	// TaskSessionStatusNone means no session has reported yet.
	TaskSessionStatusNone       TaskSessionStatus = ""
	TaskSessionStatusQueued     TaskSessionStatus = "queued"
	TaskSessionStatusWorking    TaskSessionStatus = "working"
	TaskSessionStatusNeedsInput TaskSessionStatus = "needs_input"
	TaskSessionStatusBlocked    TaskSessionStatus = "blocked"
	TaskSessionStatusCompleted  TaskSessionStatus = "completed"
	TaskSessionStatusFailed     TaskSessionStatus = "failed"
	TaskSessionStatusSkipped    TaskSessionStatus = "skipped"
)

var taskSessionTransitions = map[TaskSessionStatus][]TaskSessionStatus{
	TaskSessionStatusQueued: {TaskSessionStatusWorking, TaskSessionStatusSkipped},
	TaskSessionStatusWorking: {
		TaskSessionStatusCompleted,
		TaskSessionStatusFailed,
		TaskSessionStatusNeedsInput,
		TaskSessionStatusBlocked,
		TaskSessionStatusSkipped,
	},
	TaskSessionStatusNeedsInput: {TaskSessionStatusWorking},
	TaskSessionStatusBlocked:    {TaskSessionStatusWorking},
	TaskSessionStatusCompleted:  {},
	TaskSessionStatusFailed:     {},
	TaskSessionStatusSkipped:    {},
}

// CanTransitionTo returns true if the reported status can move to target.
// The first report from a session may be any valid value.
func (s TaskSessionStatus) CanTransitionTo(target TaskSessionStatus) bool {
	if !target.IsValid() {
		return false
	}
	if s == TaskSessionStatusNone {
		return true
	}
	return allowed(taskSessionTransitions, s, target)
}

// CanAdvanceTo is like CanTransitionTo but treats a paused report
// (needs_input, blocked) as resolved, i.e. it may pass through working.
// Queue outcomes use this so a worker that paused can still finish its item.
func (s TaskSessionStatus) CanAdvanceTo(target TaskSessionStatus) bool {
	if s.CanTransitionTo(target) {
		return true
	}
	if s.IsPaused() {
		return TaskSessionStatusWorking.CanTransitionTo(target)
	}
	return false
}

// IsPaused returns true for reports that return to working once resolved.
func (s TaskSessionStatus) IsPaused() bool {
	return s == TaskSessionStatusNeedsInput || s == TaskSessionStatusBlocked
}

// IsTerminal returns true if the report is final.
func (s TaskSessionStatus) IsTerminal() bool {
	return s == TaskSessionStatusCompleted || s == TaskSessionStatusFailed || s == TaskSessionStatusSkipped
}

// IsValid returns true if the report is a known non-empty value.
func (s TaskSessionStatus) IsValid() bool {
	_, ok := taskSessionTransitions[s]
	return ok
}

// allowed looks up target in the transition table for from.
func allowed[S comparable](table map[S][]S, from, target S) bool {
	next, ok := table[from]
	if !ok {
		return false
	}
	for _, t := range next {
		if t == target {
			return true
		}
	}
	return false
}
