// Package domain contains core business entities and interfaces.
package domain

import (
	"maps"
	"slices"
	"time"
)

// Priority orders tasks for humans and orchestrators. It does not affect queue order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid returns true if the priority is a known value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task represents a unit of work inside a project.
// Status is authoritative; SessionStatus is the most recent worker report
// and SessionStatuses keeps every session's own latest report.
type Task struct {
	CreatedAt       time.Time                    `json:"createdAt"`
	UpdatedAt       time.Time                    `json:"updatedAt"`
	StartedAt       *time.Time                   `json:"startedAt,omitempty"`
	CompletedAt     *time.Time                   `json:"completedAt,omitempty"`
	ParentID        *string                      `json:"parentId"`
	SessionStatuses map[string]TaskSessionStatus `json:"sessionStatuses,omitempty"`
	ID              string                       `json:"id"`
	ProjectID       string                       `json:"projectId"`
	Title           string                       `json:"title"`
	Description     string                       `json:"description,omitempty"`
	Status          TaskStatus                   `json:"status"`
	SessionStatus   TaskSessionStatus            `json:"sessionStatus,omitempty"`
	Priority        Priority                     `json:"priority"`
	SessionIDs      []string                     `json:"sessionIds"`
	Dependencies    []string                     `json:"dependencies,omitempty"`
}

// IsRoot returns true if this is a root task (no parent).
func (t *Task) IsRoot() bool {
	return t.ParentID == nil
}

// HasSession returns true if the session is associated with the task.
func (t *Task) HasSession(sessionID string) bool {
	return slices.Contains(t.SessionIDs, sessionID)
}

// AddSession associates sessionID. Returns false if it was already present.
func (t *Task) AddSession(sessionID string) bool {
	if t.HasSession(sessionID) {
		return false
	}
	t.SessionIDs = append(t.SessionIDs, sessionID)
	return true
}

// RemoveSession dissociates sessionID. Returns false if it was not present.
func (t *Task) RemoveSession(sessionID string) bool {
	i := slices.Index(t.SessionIDs, sessionID)
	if i < 0 {
		return false
	}
	t.SessionIDs = slices.Delete(t.SessionIDs, i, i+1)
	return true
}

// ApplyStatus moves the task to status "to", enforcing the transition table.
// StartedAt is stamped on the first move into in_progress and never changed
// afterwards; CompletedAt is stamped on the first move into a terminal state.
func (t *Task) ApplyStatus(to TaskStatus, now time.Time) error {
	if !to.IsValid() {
		return NewValidationError("status", string(to)+" is not a task status")
	}
	if t.Status == to {
		return nil
	}
	if !t.Status.CanTransitionTo(to) {
		return NewTransitionError("task", t.Status, to)
	}
	t.Status = to
	t.stamp(now)
	return nil
}

// Reopen moves a terminal task back to todo or in_progress and clears the
// stale CompletedAt. StartedAt keeps its original value.
func (t *Task) Reopen(to TaskStatus, now time.Time) error {
	if !t.Status.CanReopenTo(to) {
		return NewTransitionError("task", t.Status, to)
	}
	t.Status = to
	t.CompletedAt = nil
	t.stamp(now)
	return nil
}

func (t *Task) stamp(now time.Time) {
	if t.Status == TaskStatusInProgress && t.StartedAt == nil {
		started := now
		t.StartedAt = &started
	}
	if t.Status.IsTerminal() && t.CompletedAt == nil {
		completed := now
		t.CompletedAt = &completed
	}
	t.UpdatedAt = now
}

// ReportedStatus returns the latest report made by sessionID.
func (t *Task) ReportedStatus(sessionID string) TaskSessionStatus {
	return t.SessionStatuses[sessionID]
}

// Report records a worker report. The transition is checked against the
// reporting session's own previous report so that two sessions working on
// the same task cannot invalidate each other; the aggregate SessionStatus is
// last-writer-wins. When advance is true a paused report may pass through
// working (see TaskSessionStatus.CanAdvanceTo).
func (t *Task) Report(sessionID string, to TaskSessionStatus, advance bool, now time.Time) error {
	if !to.IsValid() {
		return NewValidationError("sessionStatus", string(to)+" is not a reported status")
	}
	from := t.SessionStatus
	if sessionID != "" {
		from = t.SessionStatuses[sessionID]
	}
	if from != to {
		ok := from.CanTransitionTo(to)
		if !ok && advance {
			ok = from.CanAdvanceTo(to)
		}
		if !ok {
			return NewTransitionError("task session", from, to)
		}
	}
	if sessionID != "" {
		if t.SessionStatuses == nil {
			t.SessionStatuses = make(map[string]TaskSessionStatus)
		}
		t.SessionStatuses[sessionID] = to
	}
	t.SessionStatus = to
	t.UpdatedAt = now
	return nil
}

// ClearReport forgets sessionID's report so its next report starts fresh.
// Used when a task is handed to the same session again.
func (t *Task) ClearReport(sessionID string) {
	delete(t.SessionStatuses, sessionID)
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.StartedAt = cloneTime(t.StartedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	if t.ParentID != nil {
		p := *t.ParentID
		c.ParentID = &p
	}
	c.SessionIDs = slices.Clone(t.SessionIDs)
	if c.SessionIDs == nil {
		c.SessionIDs = []string{}
	}
	c.Dependencies = slices.Clone(t.Dependencies)
	c.SessionStatuses = maps.Clone(t.SessionStatuses)
	return &c
}

// TaskFilter specifies criteria for listing tasks. Zero values match everything.
type TaskFilter struct {
	ParentID  *string    // set = only children of this parent
	ProjectID string     // Filter by project
	Status    TaskStatus // Filter by authoritative status
	SessionID string     // Filter by associated session
	RootOnly  bool       // Only tasks without a parent
}

// Match reports whether the task satisfies the filter.
func (f TaskFilter) Match(t *Task) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.SessionID != "" && !t.HasSession(f.SessionID) {
		return false
	}
	if f.RootOnly && t.ParentID != nil {
		return false
	}
	if f.ParentID != nil && (t.ParentID == nil || *t.ParentID != *f.ParentID) {
		return false
	}
	return true
}

// ChildPolicy decides what happens to child tasks when their parent is deleted.
type ChildPolicy string

const (
	ChildPolicyBlock   ChildPolicy = ""        // Reject the delete if children exist
	ChildPolicyDetach  ChildPolicy = "detach"  // Children become root tasks
	ChildPolicyCascade ChildPolicy = "cascade" // Children are deleted as well
)

// IsValid returns true if the policy is known.
func (p ChildPolicy) IsValid() bool {
	switch p {
	case ChildPolicyBlock, ChildPolicyDetach, ChildPolicyCascade:
		return true
	default:
		return false
	}
}

// UpdateOrigin tags who is asking for a task update.
type UpdateOrigin string

const (
	OriginUser    UpdateOrigin = "user"    // Human operator
	OriginSession UpdateOrigin = "session" // A session; its role decides its rights
)

// IsValid returns true if the origin is known.
func (o UpdateOrigin) IsValid() bool {
	return o == OriginUser || o == OriginSession
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
