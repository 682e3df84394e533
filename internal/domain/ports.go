package domain

import (
	"time"
)

// StoreInitializer initializes the data store.
type StoreInitializer interface {
	// Initialize creates the store if it doesn't exist.
	Initialize() error
}

// Repositories share one contract: Get returns (nil, nil) when the entity does
// not exist; Update applies fn to a copy under the store's write lock and
// commits only when fn returns nil, so a read-check-write inside fn is a
// single atomic step; Update and Delete return the entity's not-found error
// when the id is unknown. Returned entities are copies owned by the caller.

// ProjectRepository manages project persistence.
type ProjectRepository interface {
	Create(project *Project) error
	Get(id string) (*Project, error)
	List() ([]*Project, error)
	Update(id string, fn func(*Project) error) (*Project, error)
	Delete(id string) error
}

// TaskRepository manages task persistence.
type TaskRepository interface {
	Create(task *Task) error
	Get(id string) (*Task, error)
	List(filter TaskFilter) ([]*Task, error)
	Update(id string, fn func(*Task) error) (*Task, error)
	Delete(id string) error
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	Create(session *Session) error
	Get(id string) (*Session, error)
	List(filter SessionFilter) ([]*Session, error)
	Update(id string, fn func(*Session) error) (*Session, error)
	Delete(id string) error
}

// QueueRepository manages queue persistence. Queues are keyed by session ID.
type QueueRepository interface {
	Create(queue *QueueState) error
	Get(sessionID string) (*QueueState, error)
	List() ([]*QueueState, error)
	Update(sessionID string, fn func(*QueueState) error) (*QueueState, error)
	Delete(sessionID string) error
}

// IDGenerator produces entity identifiers.
type IDGenerator interface {
	// NewID returns a fresh identifier with the given prefix (e.g. "task").
	NewID(prefix string) string
}

// Logger writes leveled log lines. Scope is a session ID, or "" for global
// entries; category groups related lines (task, session, queue, event ...).
type Logger interface {
	Debug(scope, category, msg string)
	Info(scope, category, msg string)
	Warn(scope, category, msg string)
	Error(scope, category, msg string)
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the effective configuration (defaults <- file).
	Load() (*Config, error)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
