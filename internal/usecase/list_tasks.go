package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
// Fields are ordered to minimize memory padding.
type ListTasksInput struct {
	ParentID        *string           // Filter by parent task ID (nil = any parent)
	ProjectID       string            // Filter by project
	Status          domain.TaskStatus // Filter by authoritative status
	SessionID       string            // Filter by associated session
	RootOnly        bool              // Only tasks without a parent
	ExcludeTerminal bool              // Drop completed and cancelled tasks
	IncludeSessions bool              // Attach the associated sessions
}

// TaskWithSessions contains a task together with its associated sessions.
type TaskWithSessions struct {
	Task     *domain.Task
	Sessions []*domain.Session
}

// ListTasksOutput contains the result of listing tasks.
type ListTasksOutput struct {
	Tasks         []*domain.Task     // Tasks matching the filter (if sessions not requested)
	TasksWithInfo []TaskWithSessions // Tasks with session info (if sessions requested)
}

// ListTasks is the use case for listing tasks.
type ListTasks struct {
	tasks    domain.TaskRepository
	sessions domain.SessionRepository
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(tasks domain.TaskRepository, sessions domain.SessionRepository) *ListTasks {
	return &ListTasks{
		tasks:    tasks,
		sessions: sessions,
	}
}

// Execute lists tasks matching the given input criteria.
func (uc *ListTasks) Execute(_ context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	if in.Status != "" && !in.Status.IsValid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown task status %q", in.Status))
	}

	tasks, err := uc.tasks.List(domain.TaskFilter{
		ParentID:  in.ParentID,
		ProjectID: in.ProjectID,
		Status:    in.Status,
		SessionID: in.SessionID,
		RootOnly:  in.RootOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if in.ExcludeTerminal {
		tasks = filterActiveOnly(tasks)
	}

	if !in.IncludeSessions {
		return &ListTasksOutput{Tasks: tasks}, nil
	}

	tasksWithInfo := make([]TaskWithSessions, 0, len(tasks))
	for _, task := range tasks {
		info := TaskWithSessions{Task: task}
		for _, id := range task.SessionIDs {
			session, err := uc.sessions.Get(id)
			if err != nil {
				return nil, fmt.Errorf("get session: %w", err)
			}
			if session != nil {
				info.Sessions = append(info.Sessions, session)
			}
		}
		tasksWithInfo = append(tasksWithInfo, info)
	}

	return &ListTasksOutput{TasksWithInfo: tasksWithInfo}, nil
}

// filterActiveOnly removes tasks with terminal status (completed/cancelled).
func filterActiveOnly(tasks []*domain.Task) []*domain.Task {
	var result []*domain.Task
	for _, t := range tasks {
		if !t.Status.IsTerminal() {
			result = append(result, t)
		}
	}
	return result
}
