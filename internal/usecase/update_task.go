package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// UpdateTaskInput contains the parameters for updating a task.
// All fields except TaskID are optional. Only non-nil fields will be updated.
// Fields are ordered to minimize memory padding.
type UpdateTaskInput struct {
	Title         *string                   // New title
	Description   *string                   // New description
	Status        *domain.TaskStatus        // New authoritative status
	Priority      *domain.Priority          // New priority
	ParentID      *string                   // New parent task
	SessionStatus *domain.TaskSessionStatus // Reported status
	Dependencies  []string                  // Replaces the dependency list when non-nil
	TaskID        string                    // Task ID to update (required)
	SessionID     string                    // Reporting session (required for session origin)
	Origin        domain.UpdateOrigin       // Who asks; empty means user
	ClearParent   bool                      // Make the task a root task
}

// UpdateTaskOutput contains the result of updating a task.
type UpdateTaskOutput struct {
	Task    *domain.Task
	Dropped []string // Fields removed because the caller may not set them
}

// UpdateTask is the use case for updating a task. Workers may only report
// their own status; every other field they send is dropped and audited.
type UpdateTask struct {
	tasks    domain.TaskRepository
	sessions domain.SessionRepository
	clock    domain.Clock
	logger   domain.Logger
	bus      *event.Bus
}

// NewUpdateTask creates a new UpdateTask use case.
func NewUpdateTask(
	tasks domain.TaskRepository,
	sessions domain.SessionRepository,
	bus *event.Bus,
	clock domain.Clock,
	logger domain.Logger,
) *UpdateTask {
	return &UpdateTask{
		tasks:    tasks,
		sessions: sessions,
		bus:      bus,
		clock:    clock,
		logger:   logger,
	}
}

// Execute updates a task with the given input.
func (uc *UpdateTask) Execute(ctx context.Context, in UpdateTaskInput) (*UpdateTaskOutput, error) {
	if in.Origin == "" {
		in.Origin = domain.OriginUser
	}
	if !in.Origin.IsValid() {
		return nil, domain.NewValidationError("origin", fmt.Sprintf("unknown origin %q", in.Origin))
	}
	if len(in.fields()) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}

	var dropped []string
	if in.Origin == domain.OriginSession {
		if in.SessionID == "" {
			return nil, domain.NewValidationError("sessionId", "required for session-origin updates")
		}
		session, err := shared.GetSession(uc.sessions, in.SessionID)
		if err != nil {
			return nil, err
		}
		if session.Role == domain.RoleWorker {
			dropped = in.dropOperatorFields()
		}
	}

	task, err := shared.GetTask(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}

	if len(dropped) > 0 && uc.logger != nil {
		uc.logger.Warn(in.SessionID, "task", fmt.Sprintf("%s: worker update dropped fields %s", in.TaskID, strings.Join(dropped, ",")))
	}
	if len(in.fields()) == 0 {
		return &UpdateTaskOutput{Task: task, Dropped: dropped}, nil
	}

	if err := uc.validate(task, in); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	task, err = uc.tasks.Update(in.TaskID, func(t *domain.Task) error {
		if in.Title != nil {
			t.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.Priority != nil {
			t.Priority = *in.Priority
		}
		if in.Dependencies != nil {
			t.Dependencies = slices.Clone(in.Dependencies)
		}
		if in.ClearParent {
			t.ParentID = nil
		} else if in.ParentID != nil {
			parent := *in.ParentID
			t.ParentID = &parent
		}
		if in.Status != nil {
			if err := t.ApplyStatus(*in.Status, now); err != nil {
				return err
			}
		}
		if in.SessionStatus != nil {
			if err := t.Report(in.SessionID, *in.SessionStatus, false, now); err != nil {
				return err
			}
		}
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	event.Publish(ctx, uc.bus, event.TaskUpdated, *task)
	return &UpdateTaskOutput{Task: task, Dropped: dropped}, nil
}

func (uc *UpdateTask) validate(task *domain.Task, in UpdateTaskInput) error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return domain.ErrEmptyTitle
	}
	if in.Priority != nil && !in.Priority.IsValid() {
		return domain.NewValidationError("priority", fmt.Sprintf("unknown priority %q", *in.Priority))
	}
	if in.ClearParent && in.ParentID != nil {
		return domain.NewValidationError("parentId", "cannot set and clear the parent at once")
	}
	if in.ParentID != nil {
		return uc.checkParent(task, *in.ParentID)
	}
	return nil
}

// checkParent verifies the new parent exists, lives in the same project and
// is not the task itself or one of its descendants.
func (uc *UpdateTask) checkParent(task *domain.Task, parentID string) error {
	seen := map[string]bool{}
	for id := parentID; ; {
		if id == task.ID {
			return domain.ErrParentCycle
		}
		if seen[id] {
			return domain.ErrParentCycle
		}
		seen[id] = true

		ancestor, err := uc.tasks.Get(id)
		if err != nil {
			return fmt.Errorf("get parent task: %w", err)
		}
		if ancestor == nil {
			if id == parentID {
				return fmt.Errorf("%s: %w", parentID, domain.ErrParentNotFound)
			}
			return nil
		}
		if id == parentID && ancestor.ProjectID != task.ProjectID {
			return domain.NewValidationError("parentId", "parent belongs to another project")
		}
		if ancestor.ParentID == nil {
			return nil
		}
		id = *ancestor.ParentID
	}
}

// fields lists the names of the fields present in the input.
func (in *UpdateTaskInput) fields() []string {
	var names []string
	if in.Title != nil {
		names = append(names, "title")
	}
	if in.Description != nil {
		names = append(names, "description")
	}
	if in.Status != nil {
		names = append(names, "status")
	}
	if in.Priority != nil {
		names = append(names, "priority")
	}
	if in.ParentID != nil || in.ClearParent {
		names = append(names, "parentId")
	}
	if in.Dependencies != nil {
		names = append(names, "dependencies")
	}
	if in.SessionStatus != nil {
		names = append(names, "sessionStatus")
	}
	return names
}

// dropOperatorFields clears every field except SessionStatus and returns
// the names of the cleared fields.
func (in *UpdateTaskInput) dropOperatorFields() []string {
	dropped := slices.DeleteFunc(in.fields(), func(name string) bool { return name == "sessionStatus" })
	in.Title = nil
	in.Description = nil
	in.Status = nil
	in.Priority = nil
	in.ParentID = nil
	in.ClearParent = false
	in.Dependencies = nil
	return dropped
}
