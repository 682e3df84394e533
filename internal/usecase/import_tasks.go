package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// ImportTasksInput contains the parameters for importing tasks from a file.
// Fields are ordered to minimize memory padding.
type ImportTasksInput struct {
	ProjectID string // Owning project (required)
	Content   string // Markdown with one frontmatter block per task
	DryRun    bool   // Parse and validate without creating tasks
}

// ImportTasksOutput contains the parsed drafts and, unless dry-run, the created tasks.
type ImportTasksOutput struct {
	Drafts []domain.TaskDraft
	Tasks  []*domain.Task
}

// ImportTasks creates a batch of tasks described in a markdown file.
type ImportTasks struct {
	projects domain.ProjectRepository
	tasks    domain.TaskRepository
	create   *CreateTask
	logger   domain.Logger
}

// NewImportTasks creates a new ImportTasks use case.
func NewImportTasks(
	projects domain.ProjectRepository,
	tasks domain.TaskRepository,
	create *CreateTask,
	logger domain.Logger,
) *ImportTasks {
	return &ImportTasks{projects: projects, tasks: tasks, create: create, logger: logger}
}

// Execute parses the file, checks every reference, then creates the tasks in
// file order. Nothing is created when parsing or reference checks fail.
func (uc *ImportTasks) Execute(ctx context.Context, in ImportTasksInput) (*ImportTasksOutput, error) {
	if _, err := shared.GetProject(uc.projects, in.ProjectID); err != nil {
		return nil, err
	}
	drafts, err := ParseTaskDrafts(in.Content)
	if err != nil {
		return nil, err
	}
	if err := uc.check(in.ProjectID, drafts); err != nil {
		return nil, err
	}

	out := &ImportTasksOutput{Drafts: drafts}
	if in.DryRun {
		return out, nil
	}

	created := make([]string, 0, len(drafts))
	for i, draft := range drafts {
		parent, _ := domain.ResolveDraftRef(draft.ParentRef, created)
		var parentID *string
		if parent != "" {
			parentID = &parent
		}
		deps := make([]string, 0, len(draft.DependsOn))
		for _, ref := range draft.DependsOn {
			dep, _ := domain.ResolveDraftRef(ref, created)
			deps = append(deps, dep)
		}

		res, err := uc.create.Execute(ctx, CreateTaskInput{
			ParentID:     parentID,
			ProjectID:    in.ProjectID,
			Title:        draft.Title,
			Description:  draft.Description,
			Priority:     draft.Priority,
			Dependencies: deps,
		})
		if err != nil {
			return out, fmt.Errorf("task %d (%d created): %w", i+1, len(created), err)
		}
		created = append(created, res.Task.ID)
		out.Tasks = append(out.Tasks, res.Task)
	}

	if uc.logger != nil {
		uc.logger.Info("", "task", fmt.Sprintf("imported %d tasks into %s", len(created), in.ProjectID))
	}
	return out, nil
}

// check resolves every reference against placeholder IDs so forward
// references and missing tasks fail before anything is written.
func (uc *ImportTasks) check(projectID string, drafts []domain.TaskDraft) error {
	placeholders := make([]string, 0, len(drafts))
	for i, draft := range drafts {
		if !draft.Priority.IsValid() && draft.Priority != "" {
			return fmt.Errorf("task %d: %w", i+1, domain.NewValidationError("priority", fmt.Sprintf("unknown priority %q", draft.Priority)))
		}
		refs := append([]string{draft.ParentRef}, draft.DependsOn...)
		for _, ref := range refs {
			if _, err := domain.ResolveDraftRef(ref, placeholders); err != nil {
				return fmt.Errorf("task %d: %w", i+1, err)
			}
			id, absolute := strings.CutPrefix(strings.TrimSpace(ref), "#")
			if !absolute {
				continue
			}
			task, err := uc.tasks.Get(id)
			if err != nil {
				return fmt.Errorf("task %d: get task: %w", i+1, err)
			}
			if task == nil {
				return fmt.Errorf("task %d: %s: %w", i+1, id, domain.ErrTaskNotFound)
			}
			if task.ProjectID != projectID {
				return fmt.Errorf("task %d: %w", i+1, domain.NewValidationError("ref", id+" belongs to another project"))
			}
		}
		placeholders = append(placeholders, fmt.Sprintf("draft_%d", i+1))
	}
	return nil
}

var draftKey = regexp.MustCompile(`^(title|priority|parent|depends_on):`)

// ParseTaskDrafts parses a markdown file holding one or more tasks.
//
//	---
//	title: Build the parser
//	priority: high
//	---
//	Description of the first task.
//
//	---
//	title: Test the parser
//	parent: 1
//	depends_on: [1, "#task_42"]
//	---
//
// A "---" line inside a description only starts a new task when the next
// line is a frontmatter key.
func ParseTaskDrafts(content string) ([]domain.TaskDraft, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var (
		drafts []domain.TaskDraft
		front  []string
		body   []string
		inBody bool
		open   bool
	)
	flush := func() error {
		draft, err := parseDraft(front, body)
		if err != nil {
			return fmt.Errorf("task %d: %w", len(drafts)+1, err)
		}
		drafts = append(drafts, draft)
		front, body = nil, nil
		return nil
	}

	for i, line := range lines {
		switch {
		case !open && !inBody:
			if strings.TrimSpace(line) == "" {
				continue
			}
			if line != "---" {
				return nil, domain.NewValidationError("content", "expected --- before the first task")
			}
			open = true
		case open:
			if line == "---" {
				open, inBody = false, true
				continue
			}
			front = append(front, line)
		default:
			if line == "---" && i+1 < len(lines) && draftKey.MatchString(lines[i+1]) {
				if err := flush(); err != nil {
					return nil, err
				}
				open, inBody = true, false
				continue
			}
			body = append(body, line)
		}
	}
	if open {
		return nil, domain.NewValidationError("content", "unterminated frontmatter")
	}
	if inBody {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if len(drafts) == 0 {
		return nil, domain.NewValidationError("content", "no tasks found")
	}
	return drafts, nil
}

func parseDraft(front, body []string) (domain.TaskDraft, error) {
	var draft domain.TaskDraft
	dec := yaml.NewDecoder(bytes.NewBufferString(strings.Join(front, "\n")))
	dec.KnownFields(true)
	if err := dec.Decode(&draft); err != nil && !errors.Is(err, io.EOF) {
		return draft, domain.NewValidationError("frontmatter", err.Error())
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return draft, domain.ErrEmptyTitle
	}
	draft.Description = strings.TrimSpace(strings.Join(body, "\n"))
	return draft, nil
}
