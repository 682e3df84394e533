package shared

import (
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
)

// GetTask retrieves a task by ID and returns domain.ErrTaskNotFound if not found.
// This centralizes the common pattern of:
//
//	task, err := repo.Get(taskID)
//	if err != nil { return nil, fmt.Errorf("get task: %w", err) }
//	if task == nil { return nil, domain.ErrTaskNotFound }
func GetTask(repo domain.TaskRepository, taskID string) (*domain.Task, error) {
	task, err := repo.Get(taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%s: %w", taskID, domain.ErrTaskNotFound)
	}
	return task, nil
}

// GetProject retrieves a project by ID and returns domain.ErrProjectNotFound if not found.
func GetProject(repo domain.ProjectRepository, projectID string) (*domain.Project, error) {
	project, err := repo.Get(projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%s: %w", projectID, domain.ErrProjectNotFound)
	}
	return project, nil
}

// GetSession retrieves a session by ID and returns domain.ErrSessionNotFound if not found.
func GetSession(repo domain.SessionRepository, sessionID string) (*domain.Session, error) {
	session, err := repo.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return session, nil
}

// GetQueue retrieves a session's queue and returns domain.ErrQueueNotFound if not found.
func GetQueue(repo domain.QueueRepository, sessionID string) (*domain.QueueState, error) {
	queue, err := repo.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get queue: %w", err)
	}
	if queue == nil {
		return nil, fmt.Errorf("%s: %w", sessionID, domain.ErrQueueNotFound)
	}
	return queue, nil
}
