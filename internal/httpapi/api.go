// Package httpapi exposes the use cases as a JSON HTTP API. The request and
// response types in this file are shared with the client package.
package httpapi

import "github.com/runoshun/maestro/internal/domain"

// Error codes carried by ErrorResponse. They mirror the domain error categories.
const (
	CodeValidation        = "validation"
	CodeNotFound          = "not_found"
	CodeInvalidTransition = "invalid_transition"
	CodeConflict          = "conflict"
	CodeInternal          = "internal"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// Projects

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	WorkingDir  string `json:"workingDir"`
	Description string `json:"description,omitempty"`
}

// UpdateProjectRequest changes the fields that are set.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	WorkingDir  *string `json:"workingDir,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ProjectListResponse lists projects.
type ProjectListResponse struct {
	Projects []*domain.Project `json:"projects"`
}

// Tasks

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	ParentID     *string         `json:"parentId,omitempty"`
	ProjectID    string          `json:"projectId"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Priority     domain.Priority `json:"priority,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty"`
}

// ImportTasksRequest carries a markdown task file.
type ImportTasksRequest struct {
	Content string `json:"content"`
	DryRun  bool   `json:"dryRun,omitempty"`
}

// ImportTasksResponse carries the parsed drafts and, unless DryRun was set,
// the created tasks.
type ImportTasksResponse struct {
	Drafts []domain.TaskDraft `json:"drafts"`
	Tasks  []*domain.Task     `json:"tasks"`
}

// UpdateTaskRequest changes the fields that are set. A session reporting on
// its own work sets Origin "session" and SessionID.
type UpdateTaskRequest struct {
	Title         *string                   `json:"title,omitempty"`
	Description   *string                   `json:"description,omitempty"`
	Status        *domain.TaskStatus        `json:"status,omitempty"`
	Priority      *domain.Priority          `json:"priority,omitempty"`
	ParentID      *string                   `json:"parentId,omitempty"`
	SessionStatus *domain.TaskSessionStatus `json:"sessionStatus,omitempty"`
	Dependencies  []string                  `json:"dependencies,omitempty"`
	SessionID     string                    `json:"sessionId,omitempty"`
	Origin        domain.UpdateOrigin       `json:"origin,omitempty"`
	ClearParent   bool                      `json:"clearParent,omitempty"`
}

// UpdateTaskResponse carries the updated task. Dropped lists the fields a
// session was not allowed to change.
type UpdateTaskResponse struct {
	Task    *domain.Task `json:"task"`
	Dropped []string     `json:"dropped,omitempty"`
}

// ReopenTaskRequest optionally names the status a closed task returns to.
type ReopenTaskRequest struct {
	Status domain.TaskStatus `json:"status,omitempty"`
}

// TaskWithSessions pairs a task with its linked sessions.
type TaskWithSessions struct {
	Task     *domain.Task      `json:"task"`
	Sessions []*domain.Session `json:"sessions"`
}

// TaskListResponse lists tasks, with their sessions when requested.
type TaskListResponse struct {
	Tasks             []*domain.Task     `json:"tasks"`
	TasksWithSessions []TaskWithSessions `json:"tasksWithSessions,omitempty"`
}

// DeleteTaskResponse lists the deleted tasks and the sessions they were
// detached from.
type DeleteTaskResponse struct {
	Deleted  []string `json:"deleted"`
	Detached []string `json:"detached,omitempty"`
}

// LinkResponse answers a link or unlink. Changed is false when nothing moved.
type LinkResponse struct {
	Task    *domain.Task    `json:"task"`
	Session *domain.Session `json:"session"`
	Changed bool            `json:"changed"`
}

// Sessions

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	Metadata  map[string]string    `json:"metadata,omitempty"`
	ProjectID string               `json:"projectId"`
	Name      string               `json:"name,omitempty"`
	Role      domain.Role          `json:"role,omitempty"`
	Strategy  domain.Strategy      `json:"strategy,omitempty"`
	Status    domain.SessionStatus `json:"status,omitempty"`
	TaskIDs   []string             `json:"taskIds,omitempty"`
}

// SessionResponse carries a session and its queue, if it has one.
type SessionResponse struct {
	Session *domain.Session    `json:"session"`
	Queue   *domain.QueueState `json:"queue,omitempty"`
}

// SpawnSessionRequest is the body of POST /api/sessions/spawn.
type SpawnSessionRequest struct {
	Metadata    map[string]string  `json:"metadata,omitempty"`
	ProjectID   string             `json:"projectId"`
	Name        string             `json:"name,omitempty"`
	Role        domain.Role        `json:"role,omitempty"`
	Strategy    domain.Strategy    `json:"strategy,omitempty"`
	SpawnSource domain.SpawnSource `json:"spawnSource,omitempty"`
	TaskIDs     []string           `json:"taskIds,omitempty"`
}

// SpawnSessionResponse carries the new session and how to launch its agent.
type SpawnSessionResponse struct {
	Session *domain.Session    `json:"session"`
	Queue   *domain.QueueState `json:"queue,omitempty"`
	EnvVars map[string]string  `json:"envVars"`
	Command string             `json:"command"`
	Cwd     string             `json:"cwd"`
	Args    []string           `json:"args,omitempty"`
}

// SessionListResponse lists sessions.
type SessionListResponse struct {
	Sessions []*domain.Session `json:"sessions"`
}

// UpdateSessionRequest changes the fields that are set.
type UpdateSessionRequest struct {
	Status   *domain.SessionStatus `json:"status,omitempty"`
	Name     *string               `json:"name,omitempty"`
	Metadata map[string]string     `json:"metadata,omitempty"`
	Reason   string                `json:"reason,omitempty"`
}

// UpdateSessionResponse carries the updated session.
type UpdateSessionResponse struct {
	Session       *domain.Session `json:"session"`
	StatusChanged bool            `json:"statusChanged"`
}

// DeleteSessionResponse lists the tasks the deleted session was detached from.
type DeleteSessionResponse struct {
	DetachedTaskIDs []string `json:"detachedTaskIds"`
	Reason          string   `json:"reason"`
}

// TimelineRequest appends an entry to a session timeline.
type TimelineRequest struct {
	Type    domain.TimelineEventType `json:"type"`
	Message string                   `json:"message,omitempty"`
	TaskID  string                   `json:"taskId,omitempty"`
}

// TimelineResponse carries the appended entry.
type TimelineResponse struct {
	Event domain.TimelineEvent `json:"event"`
}

// HookRequest is the optional body of a lifecycle signal.
type HookRequest struct {
	ExitCode int `json:"exitCode,omitempty"`
}

// HookResponse carries the session after a lifecycle signal. Ignored is set
// when the signal did not apply to the session's current status.
type HookResponse struct {
	Session *domain.Session `json:"session"`
	Ignored bool            `json:"ignored"`
}

// Queue

// QueueResponse carries a queue and its item counts by status.
type QueueResponse struct {
	Queue  *domain.QueueState             `json:"queue"`
	Counts map[domain.QueueItemStatus]int `json:"counts"`
}

// PeekResponse names the next queued item without claiming it.
type PeekResponse struct {
	Item       *domain.QueueItem `json:"item"`
	Task       *domain.Task      `json:"task,omitempty"`
	Processing *domain.QueueItem `json:"processing,omitempty"`
}

// ClaimResponse answers a claim. Empty means nothing was queued; it is a
// normal outcome, not an error.
type ClaimResponse struct {
	Item    *domain.QueueItem `json:"item,omitempty"`
	Task    *domain.Task      `json:"task,omitempty"`
	Session *domain.Session   `json:"session"`
	Empty   bool              `json:"empty"`
}

// FinishRequest is the body of complete, fail and skip. Fail requires Reason.
type FinishRequest struct {
	Reason string `json:"reason,omitempty"`
}

// FinishResponse carries the finished item. Unsynced lists tasks whose report
// could not follow the item.
type FinishResponse struct {
	Item     *domain.QueueItem `json:"item"`
	Session  *domain.Session   `json:"session"`
	Unsynced []string          `json:"unsynced,omitempty"`
}

// PushRequest names the task to append to a queue.
type PushRequest struct {
	TaskID string `json:"taskId"`
}

// PushResponse carries the appended item and the queue after the push.
type PushResponse struct {
	Item  *domain.QueueItem  `json:"item"`
	Queue *domain.QueueState `json:"queue"`
}
