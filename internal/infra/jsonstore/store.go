// Package jsonstore provides JSON file-based implementations of the repositories.
//
// The whole state lives in one file guarded by an flock(2) lock file: reads
// take a shared lock, writes take an exclusive lock for the full
// read-modify-write cycle and replace the file atomically via rename.
package jsonstore

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/runoshun/maestro/internal/domain"
)

// storeData represents the JSON file structure.
// Fields are ordered to minimize memory padding.
type storeData struct {
	Projects map[string]*domain.Project    `json:"projects"`
	Tasks    map[string]*domain.Task       `json:"tasks"`
	Sessions map[string]*domain.Session    `json:"sessions"`
	Queues   map[string]*domain.QueueState `json:"queues"`
	Meta     meta                          `json:"meta"`
}

// meta contains store metadata.
type meta struct {
	Version int `json:"version"`
}

const storeVersion = 1

// Store holds the file paths and hands out the four repositories.
type Store struct {
	Projects *ProjectStore
	Tasks    *TaskStore
	Sessions *SessionStore
	Queues   *QueueStore
	path     string
	lockPath string
}

// New creates a new Store for the given file path.
// The file does not need to exist; it will be created on first write.
func New(path string) *Store {
	s := &Store{
		path:     path,
		lockPath: path + ".lock",
	}
	s.Projects = &ProjectStore{c: collection[domain.Project]{
		s: s, pick: func(d *storeData) map[string]*domain.Project { return d.Projects },
		notFound: domain.ErrProjectNotFound,
		compare:  func(a, b *domain.Project) int { return strings.Compare(a.Name, b.Name) },
	}}
	s.Tasks = &TaskStore{c: collection[domain.Task]{
		s: s, pick: func(d *storeData) map[string]*domain.Task { return d.Tasks },
		notFound: domain.ErrTaskNotFound,
		compare: func(a, b *domain.Task) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
		},
	}}
	s.Sessions = &SessionStore{c: collection[domain.Session]{
		s: s, pick: func(d *storeData) map[string]*domain.Session { return d.Sessions },
		notFound: domain.ErrSessionNotFound,
		compare: func(a, b *domain.Session) int {
			return cmp.Or(a.StartedAt.Compare(b.StartedAt), strings.Compare(a.ID, b.ID))
		},
	}}
	s.Queues = &QueueStore{c: collection[domain.QueueState]{
		s: s, pick: func(d *storeData) map[string]*domain.QueueState { return d.Queues },
		notFound: domain.ErrQueueNotFound,
		compare:  func(a, b *domain.QueueState) int { return strings.Compare(a.SessionID, b.SessionID) },
	}}
	return s
}

// IsInitialized checks if the store file exists.
func (s *Store) IsInitialized() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Initialize creates an empty store file if it doesn't exist.
func (s *Store) Initialize() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return nil // Already exists
	}

	return s.withLockWrite(func(*storeData) error { return nil })
}

// collection is one keyed map inside the store file.
// Fields are ordered to minimize memory padding.
type collection[T any] struct {
	s        *Store
	pick     func(*storeData) map[string]*T
	compare  func(a, b *T) int
	notFound error
}

func (c collection[T]) create(id string, v *T) error {
	return c.s.withLockWrite(func(data *storeData) error {
		rows := c.pick(data)
		if _, ok := rows[id]; ok {
			return fmt.Errorf("%w: %s already exists", domain.ErrConflict, id)
		}
		rows[id] = v
		return nil
	})
}

func (c collection[T]) get(id string) (*T, error) {
	var out *T
	err := c.s.withLock(func(data *storeData) error {
		out = c.pick(data)[id]
		return nil
	})
	return out, err
}

func (c collection[T]) list(match func(*T) bool) ([]*T, error) {
	var out []*T
	err := c.s.withLock(func(data *storeData) error {
		for _, v := range c.pick(data) {
			if match == nil || match(v) {
				out = append(out, v)
			}
		}
		return nil
	})
	slices.SortFunc(out, c.compare)
	return out, err
}

// update applies fn to the decoded entity; nothing is written when fn fails.
func (c collection[T]) update(id string, fn func(*T) error) (*T, error) {
	var out *T
	err := c.s.withLockWrite(func(data *storeData) error {
		cur, ok := c.pick(data)[id]
		if !ok {
			return fmt.Errorf("%s: %w", id, c.notFound)
		}
		if err := fn(cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c collection[T]) delete(id string) error {
	return c.s.withLockWrite(func(data *storeData) error {
		rows := c.pick(data)
		if _, ok := rows[id]; !ok {
			return fmt.Errorf("%s: %w", id, c.notFound)
		}
		delete(rows, id)
		return nil
	})
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes the result.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(data); err != nil {
		return err
	}

	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

// read loads the store file. A missing file reads as an empty store.
func (s *Store) read() (*storeData, error) {
	data := storeData{Meta: meta{Version: storeVersion}}
	content, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("parse store file: %w", err)
		}
	}

	// Ensure maps are initialized
	if data.Projects == nil {
		data.Projects = make(map[string]*domain.Project)
	}
	if data.Tasks == nil {
		data.Tasks = make(map[string]*domain.Task)
	}
	if data.Sessions == nil {
		data.Sessions = make(map[string]*domain.Session)
	}
	if data.Queues == nil {
		data.Queues = make(map[string]*domain.QueueState)
	}

	return &data, nil
}

func (s *Store) write(data *storeData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath) // Clean up
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// ProjectStore implements domain.ProjectRepository.
type ProjectStore struct{ c collection[domain.Project] }

// Create stores a new project.
func (s *ProjectStore) Create(p *domain.Project) error { return s.c.create(p.ID, p) }

// Get retrieves a project by ID.
func (s *ProjectStore) Get(id string) (*domain.Project, error) { return s.c.get(id) }

// List returns all projects sorted by name.
func (s *ProjectStore) List() ([]*domain.Project, error) { return s.c.list(nil) }

// Update atomically mutates a project.
func (s *ProjectStore) Update(id string, fn func(*domain.Project) error) (*domain.Project, error) {
	return s.c.update(id, fn)
}

// Delete removes a project.
func (s *ProjectStore) Delete(id string) error { return s.c.delete(id) }

// TaskStore implements domain.TaskRepository.
type TaskStore struct{ c collection[domain.Task] }

// Create stores a new task.
func (s *TaskStore) Create(task *domain.Task) error { return s.c.create(task.ID, task) }

// Get retrieves a task by ID.
func (s *TaskStore) Get(id string) (*domain.Task, error) { return s.c.get(id) }

// List returns tasks matching the filter, oldest first.
func (s *TaskStore) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.c.list(filter.Match)
}

// Update atomically mutates a task.
func (s *TaskStore) Update(id string, fn func(*domain.Task) error) (*domain.Task, error) {
	return s.c.update(id, fn)
}

// Delete removes a task.
func (s *TaskStore) Delete(id string) error { return s.c.delete(id) }

// SessionStore implements domain.SessionRepository.
type SessionStore struct{ c collection[domain.Session] }

// Create stores a new session.
func (s *SessionStore) Create(session *domain.Session) error { return s.c.create(session.ID, session) }

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*domain.Session, error) { return s.c.get(id) }

// List returns sessions matching the filter, oldest first.
func (s *SessionStore) List(filter domain.SessionFilter) ([]*domain.Session, error) {
	return s.c.list(filter.Match)
}

// Update atomically mutates a session.
func (s *SessionStore) Update(id string, fn func(*domain.Session) error) (*domain.Session, error) {
	return s.c.update(id, fn)
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) error { return s.c.delete(id) }

// QueueStore implements domain.QueueRepository.
type QueueStore struct{ c collection[domain.QueueState] }

// Create stores a new queue.
func (s *QueueStore) Create(q *domain.QueueState) error { return s.c.create(q.SessionID, q) }

// Get retrieves the queue of a session.
func (s *QueueStore) Get(sessionID string) (*domain.QueueState, error) { return s.c.get(sessionID) }

// List returns every queue.
func (s *QueueStore) List() ([]*domain.QueueState, error) { return s.c.list(nil) }

// Update atomically mutates a queue.
func (s *QueueStore) Update(sessionID string, fn func(*domain.QueueState) error) (*domain.QueueState, error) {
	return s.c.update(sessionID, fn)
}

// Delete removes a queue.
func (s *QueueStore) Delete(sessionID string) error { return s.c.delete(sessionID) }

// Ensure stores implement the repository ports.
var (
	_ domain.ProjectRepository = (*ProjectStore)(nil)
	_ domain.TaskRepository    = (*TaskStore)(nil)
	_ domain.SessionRepository = (*SessionStore)(nil)
	_ domain.QueueRepository   = (*QueueStore)(nil)
	_ domain.StoreInitializer  = (*Store)(nil)
)
