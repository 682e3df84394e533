package domain

import (
	"maps"
	"slices"
	"time"
)

// SessionStatus represents the lifecycle state of a worker or orchestrator process.
type SessionStatus string

const (
	SessionStatusSpawning       SessionStatus = "spawning"         // Created, process not yet started
	SessionStatusIdle           SessionStatus = "idle"             // Running with nothing to do
	SessionStatusWorking        SessionStatus = "working"          // Running and busy
	SessionStatusNeedsUserInput SessionStatus = "needs_user_input" // Paused waiting for a human
	SessionStatusCompleted      SessionStatus = "completed"        // Process exited normally
	SessionStatusFailed         SessionStatus = "failed"           // Process exited abnormally
	SessionStatusStopped        SessionStatus = "stopped"          // Stopped by an operator
)

// sessionTransitions defines the allowed session status transitions.
// Flow: spawning → {idle | working} → needs_user_input ⇄ working → {completed | failed | stopped}
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusSpawning: {
		SessionStatusIdle, SessionStatusWorking,
		SessionStatusCompleted, SessionStatusFailed, SessionStatusStopped,
	},
	SessionStatusIdle: {
		SessionStatusWorking, SessionStatusNeedsUserInput,
		SessionStatusCompleted, SessionStatusFailed, SessionStatusStopped,
	},
	SessionStatusWorking: {
		SessionStatusIdle, SessionStatusNeedsUserInput,
		SessionStatusCompleted, SessionStatusFailed, SessionStatusStopped,
	},
	SessionStatusNeedsUserInput: {
		SessionStatusWorking,
		SessionStatusCompleted, SessionStatusFailed, SessionStatusStopped,
	},
	SessionStatusCompleted: {},
	SessionStatusFailed:    {},
	SessionStatusStopped:   {},
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	return allowed(sessionTransitions, s, target)
}

// IsTerminal returns true if no transition out of the status exists.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed || s == SessionStatusStopped
}

// IsValid returns true if the status is a known valid value.
func (s SessionStatus) IsValid() bool {
	_, ok := sessionTransitions[s]
	return ok
}

// Role is the part a session plays in the orchestration.
type Role string

const (
	RoleWorker       Role = "worker"
	RoleOrchestrator Role = "orchestrator"
)

// IsValid returns true if the role is known.
func (r Role) IsValid() bool {
	return r == RoleWorker || r == RoleOrchestrator
}

// Strategy is the task-processing model a session follows.
type Strategy string

const (
	StrategySimple Strategy = "simple" // Work all assigned tasks at once
	StrategyQueue  Strategy = "queue"  // Claim tasks one at a time from a FIFO queue
	StrategyTree   Strategy = "tree"   // Work a task and its subtree
)

// IsValid returns true if the strategy is known.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategySimple, StrategyQueue, StrategyTree:
		return true
	default:
		return false
	}
}

// TimelineEventType classifies timeline entries.
type TimelineEventType string

const (
	TimelineSessionStarted TimelineEventType = "session_started"
	TimelineSessionPaused  TimelineEventType = "session_paused"
	TimelineSessionResumed TimelineEventType = "session_resumed"
	TimelineSessionEnded   TimelineEventType = "session_ended"
	TimelineStatusChange   TimelineEventType = "status_change"
	TimelineTaskAdded      TimelineEventType = "task_added"
	TimelineTaskRemoved    TimelineEventType = "task_removed"
	TimelineTaskStarted    TimelineEventType = "task_started"
	TimelineTaskCompleted  TimelineEventType = "task_completed"
	TimelineTaskFailed     TimelineEventType = "task_failed"
	TimelineTaskSkipped    TimelineEventType = "task_skipped"
	TimelineProgress       TimelineEventType = "progress"
	TimelineMilestone      TimelineEventType = "milestone"
	TimelineError          TimelineEventType = "error"
)

// IsValid returns true if the timeline event type is known.
func (t TimelineEventType) IsValid() bool {
	switch t {
	case TimelineSessionStarted, TimelineSessionPaused, TimelineSessionResumed, TimelineSessionEnded,
		TimelineStatusChange, TimelineTaskAdded, TimelineTaskRemoved, TimelineTaskStarted,
		TimelineTaskCompleted, TimelineTaskFailed, TimelineTaskSkipped,
		TimelineProgress, TimelineMilestone, TimelineError:
		return true
	default:
		return false
	}
}

// TimelineEvent is one entry of a session's ordered activity log.
type TimelineEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	ID        string            `json:"id"`
	Type      TimelineEventType `json:"type"`
	Message   string            `json:"message,omitempty"`
	TaskID    string            `json:"taskId,omitempty"`
}

// Session is the server-side handle for one worker or orchestrator process.
type Session struct {
	StartedAt      time.Time         `json:"startedAt"`
	LastActivityAt time.Time         `json:"lastActivityAt"`
	CompletedAt    *time.Time        `json:"completedAt,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ID             string            `json:"id"`
	ProjectID      string            `json:"projectId"`
	Name           string            `json:"name,omitempty"`
	Role           Role              `json:"role"`
	Strategy       Strategy          `json:"strategy"`
	Status         SessionStatus     `json:"status"`
	QueueID        string            `json:"queueId,omitempty"` // set only for the queue strategy
	TaskIDs        []string          `json:"taskIds"`
	Timeline       []TimelineEvent   `json:"timeline"`
}

// HasTask returns true if the task is associated with the session.
func (s *Session) HasTask(taskID string) bool {
	return slices.Contains(s.TaskIDs, taskID)
}

// AddTask associates taskID. Returns false if it was already present.
func (s *Session) AddTask(taskID string) bool {
	if s.HasTask(taskID) {
		return false
	}
	s.TaskIDs = append(s.TaskIDs, taskID)
	return true
}

// RemoveTask dissociates taskID. Returns false if it was not present.
func (s *Session) RemoveTask(taskID string) bool {
	i := slices.Index(s.TaskIDs, taskID)
	if i < 0 {
		return false
	}
	s.TaskIDs = slices.Delete(s.TaskIDs, i, i+1)
	return true
}

// Append adds a timeline entry and bumps LastActivityAt.
func (s *Session) Append(ev TimelineEvent) {
	s.Timeline = append(s.Timeline, ev)
	if ev.Timestamp.After(s.LastActivityAt) {
		s.LastActivityAt = ev.Timestamp
	}
}

// ApplyStatus moves the session to status "to", enforcing the transition
// table. CompletedAt is stamped once when a terminal status is reached.
func (s *Session) ApplyStatus(to SessionStatus, now time.Time) error {
	if !to.IsValid() {
		return NewValidationError("status", string(to)+" is not a session status")
	}
	if s.Status == to {
		return nil
	}
	if !s.Status.CanTransitionTo(to) {
		return NewTransitionError("session", s.Status, to)
	}
	s.Status = to
	s.LastActivityAt = now
	if to.IsTerminal() && s.CompletedAt == nil {
		completed := now
		s.CompletedAt = &completed
	}
	return nil
}

// DetachReason describes why tasks are being detached from an ending session.
func (s *Session) DetachReason() string {
	switch s.Status {
	case SessionStatusCompleted:
		return "session completed"
	case SessionStatusFailed:
		return "session failed"
	default:
		return "session closed"
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.CompletedAt = cloneTime(s.CompletedAt)
	c.TaskIDs = slices.Clone(s.TaskIDs)
	if c.TaskIDs == nil {
		c.TaskIDs = []string{}
	}
	c.Timeline = slices.Clone(s.Timeline)
	if c.Timeline == nil {
		c.Timeline = []TimelineEvent{}
	}
	c.Metadata = maps.Clone(s.Metadata)
	return &c
}

// SessionFilter specifies criteria for listing sessions. Zero values match everything.
type SessionFilter struct {
	ProjectID string
	TaskID    string
	Status    SessionStatus
	Role      Role
	Active    bool // Only non-terminal sessions
}

// Match reports whether the session satisfies the filter.
func (f SessionFilter) Match(s *Session) bool {
	if f.ProjectID != "" && s.ProjectID != f.ProjectID {
		return false
	}
	if f.TaskID != "" && !s.HasTask(f.TaskID) {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.Role != "" && s.Role != f.Role {
		return false
	}
	if f.Active && s.Status.IsTerminal() {
		return false
	}
	return true
}
