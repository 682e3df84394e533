// Package memstore provides in-memory implementations of the repositories.
//
// Every table is guarded by its own RWMutex; reads run concurrently and
// Update applies its mutation function to a copy under the write lock, so a
// check-and-set inside the function is atomic with respect to other writers.
package memstore

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/runoshun/maestro/internal/domain"
)

// table is a keyed collection of cloneable entities.
// Fields are ordered to minimize memory padding.
type table[T any] struct {
	rows     map[string]*T
	clone    func(*T) *T
	notFound error
	order    []string // insertion order for stable listing
	mu       sync.RWMutex
}

func newTable[T any](clone func(*T) *T, notFound error) *table[T] {
	return &table[T]{rows: make(map[string]*T), clone: clone, notFound: notFound}
}

func (t *table[T]) create(id string, v *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; ok {
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, id)
	}
	t.rows[id] = t.clone(v)
	t.order = append(t.order, id)
	return nil
}

func (t *table[T]) get(id string) *T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.rows[id]
	if !ok {
		return nil
	}
	return t.clone(v)
}

func (t *table[T]) list(match func(*T) bool) []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*T, 0, len(t.order))
	for _, id := range t.order {
		v := t.rows[id]
		if match == nil || match(v) {
			out = append(out, t.clone(v))
		}
	}
	return out
}

func (t *table[T]) update(id string, fn func(*T) error) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, t.notFound)
	}
	next := t.clone(cur)
	if err := fn(next); err != nil {
		return nil, err
	}
	t.rows[id] = next
	return t.clone(next), nil
}

func (t *table[T]) delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%s: %w", id, t.notFound)
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(s string) bool { return s == id })
	return nil
}

// Store bundles the four repositories.
type Store struct {
	Projects *ProjectStore
	Tasks    *TaskStore
	Sessions *SessionStore
	Queues   *QueueStore
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		Projects: &ProjectStore{t: newTable((*domain.Project).Clone, domain.ErrProjectNotFound)},
		Tasks:    &TaskStore{t: newTable((*domain.Task).Clone, domain.ErrTaskNotFound)},
		Sessions: &SessionStore{t: newTable((*domain.Session).Clone, domain.ErrSessionNotFound)},
		Queues:   &QueueStore{t: newTable((*domain.QueueState).Clone, domain.ErrQueueNotFound)},
	}
}

// Initialize is a no-op; the store lives in memory.
func (s *Store) Initialize() error {
	return nil
}

// ProjectStore implements domain.ProjectRepository.
type ProjectStore struct{ t *table[domain.Project] }

// Create stores a new project.
func (s *ProjectStore) Create(p *domain.Project) error { return s.t.create(p.ID, p) }

// Get retrieves a project by ID.
func (s *ProjectStore) Get(id string) (*domain.Project, error) { return s.t.get(id), nil }

// List returns all projects sorted by name.
func (s *ProjectStore) List() ([]*domain.Project, error) {
	out := s.t.list(nil)
	slices.SortStableFunc(out, func(a, b *domain.Project) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Update atomically mutates a project.
func (s *ProjectStore) Update(id string, fn func(*domain.Project) error) (*domain.Project, error) {
	return s.t.update(id, fn)
}

// Delete removes a project.
func (s *ProjectStore) Delete(id string) error { return s.t.delete(id) }

// TaskStore implements domain.TaskRepository.
type TaskStore struct{ t *table[domain.Task] }

// Create stores a new task.
func (s *TaskStore) Create(task *domain.Task) error { return s.t.create(task.ID, task) }

// Get retrieves a task by ID.
func (s *TaskStore) Get(id string) (*domain.Task, error) { return s.t.get(id), nil }

// List returns tasks matching the filter in creation order.
func (s *TaskStore) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.t.list(filter.Match), nil
}

// Update atomically mutates a task.
func (s *TaskStore) Update(id string, fn func(*domain.Task) error) (*domain.Task, error) {
	return s.t.update(id, fn)
}

// Delete removes a task.
func (s *TaskStore) Delete(id string) error { return s.t.delete(id) }

// SessionStore implements domain.SessionRepository.
type SessionStore struct{ t *table[domain.Session] }

// Create stores a new session.
func (s *SessionStore) Create(session *domain.Session) error { return s.t.create(session.ID, session) }

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*domain.Session, error) { return s.t.get(id), nil }

// List returns sessions matching the filter in creation order.
func (s *SessionStore) List(filter domain.SessionFilter) ([]*domain.Session, error) {
	return s.t.list(filter.Match), nil
}

// Update atomically mutates a session.
func (s *SessionStore) Update(id string, fn func(*domain.Session) error) (*domain.Session, error) {
	return s.t.update(id, fn)
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) error { return s.t.delete(id) }

// QueueStore implements domain.QueueRepository.
type QueueStore struct{ t *table[domain.QueueState] }

// Create stores a new queue.
func (s *QueueStore) Create(q *domain.QueueState) error { return s.t.create(q.SessionID, q) }

// Get retrieves the queue of a session.
func (s *QueueStore) Get(sessionID string) (*domain.QueueState, error) {
	return s.t.get(sessionID), nil
}

// List returns every queue.
func (s *QueueStore) List() ([]*domain.QueueState, error) { return s.t.list(nil), nil }

// Update atomically mutates a queue.
func (s *QueueStore) Update(sessionID string, fn func(*domain.QueueState) error) (*domain.QueueState, error) {
	return s.t.update(sessionID, fn)
}

// Delete removes a queue.
func (s *QueueStore) Delete(sessionID string) error { return s.t.delete(sessionID) }

// Ensure stores implement the repository ports.
var (
	_ domain.ProjectRepository = (*ProjectStore)(nil)
	_ domain.TaskRepository    = (*TaskStore)(nil)
	_ domain.SessionRepository = (*SessionStore)(nil)
	_ domain.QueueRepository   = (*QueueStore)(nil)
	_ domain.StoreInitializer  = (*Store)(nil)
)
