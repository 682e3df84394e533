package domain

// Payload shapes published on the event feed. Full entities (Project, Task,
// Session) are published by value; the types below cover the rest.

// DeletedPayload announces that an entity no longer exists.
type DeletedPayload struct {
	ID string `json:"id"`
}

// TaskSessionPayload announces a task-side association change.
type TaskSessionPayload struct {
	TaskID    string `json:"taskId"`
	SessionID string `json:"sessionId"`
}

// SessionTaskPayload announces a session-side association change.
type SessionTaskPayload struct {
	SessionID string `json:"sessionId"`
	TaskID    string `json:"taskId"`
}

// SpawnSource tells subscribers who asked for a spawn.
type SpawnSource string

const (
	SpawnSourceUser    SpawnSource = "ui"      // A human operator
	SpawnSourceSession SpawnSource = "session" // An orchestrator session
)

// IsValid returns true if the source is known.
func (s SpawnSource) IsValid() bool {
	return s == SpawnSourceUser || s == SpawnSourceSession
}

// SpawnPayload carries a freshly created session together with the launch
// contract a process launcher needs to start it.
type SpawnPayload struct {
	EnvVars     map[string]string `json:"envVars"`
	Session     Session           `json:"session"`
	Command     string            `json:"command"`
	Cwd         string            `json:"cwd"`
	SpawnSource SpawnSource       `json:"spawnSource"`
	Args        []string          `json:"args,omitempty"`
}
