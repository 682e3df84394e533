package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/httpapi"
	"github.com/spf13/cobra"
)

// newTaskCommand creates the task command.
func newTaskCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		newTaskCreateCommand(e),
		newTaskImportCommand(e),
		newTaskListCommand(e),
		newTaskShowCommand(e),
		newTaskStatusCommand(e),
		newTaskReportCommand(e),
	)
	return cmd
}

func newTaskCreateCommand(e *env) *cobra.Command {
	var opts struct {
		Project     string
		Parent      string
		Description string
		Priority    string
		DependsOn   []string
	}

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Long: `Create a task in a project.

Examples:
  maestro task create "Add login page" --project proj_1
  maestro task create "Write tests" --project proj_1 --parent task_1 --priority high`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := opts.Project
			if project == "" {
				project = e.getenv(domain.EnvProjectID)
			}
			req := httpapi.CreateTaskRequest{
				ProjectID:    project,
				Title:        args[0],
				Description:  opts.Description,
				Priority:     domain.Priority(opts.Priority),
				Dependencies: opts.DependsOn,
			}
			if opts.Parent != "" {
				req.ParentID = &opts.Parent
			}

			task, err := e.client().CreateTask(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", task.ID, task.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Project ID (default $MAESTRO_PROJECT_ID)")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "Parent task ID")
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "Priority: low, medium, high (default medium)")
	cmd.Flags().StringSliceVar(&opts.DependsOn, "depends-on", nil, "IDs of tasks this one depends on")

	return cmd
}

func newTaskListCommand(e *env) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := e.client().ListTasks(cmd.Context(), project)
			if err != nil {
				return err
			}
			printTaskList(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID (default all projects)")
	return cmd
}

func newTaskShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := e.client().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTaskDetails(cmd.OutOrStdout(), task)
			return nil
		},
	}
}

// newTaskStatusCommand sets the authoritative status as an operator.
func newTaskStatusCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Set a task's status",
		Long: `Set a task's authoritative status. Allowed moves:

  todo        -> in_progress, cancelled
  in_progress -> completed, blocked, cancelled
  blocked     -> in_progress, cancelled

completed and cancelled can only be left with a reopen.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := domain.TaskStatus(args[1])
			out, err := e.client().UpdateTask(cmd.Context(), args[0], httpapi.UpdateTaskRequest{
				Status: &status,
				Origin: domain.OriginUser,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out.Task.ID, taskStatusStyle(out.Task.Status).Render(string(out.Task.Status)))
			return nil
		},
	}
}

// newTaskReportCommand records a session's own progress on a task.
func newTaskReportCommand(e *env) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "report <task-id> <status>",
		Short: "Report this session's progress on a task",
		Long: `Report the current session's progress on a task: working, needs_input,
blocked, completed or failed. The report is recorded per session and does
not change the task's own status.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := e.sessionID(session)
			if err != nil {
				return err
			}
			status := domain.TaskSessionStatus(args[1])
			out, err := e.client().UpdateTask(cmd.Context(), args[0], httpapi.UpdateTaskRequest{
				SessionStatus: &status,
				SessionID:     sessionID,
				Origin:        domain.OriginSession,
			})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%s reported %s\n", out.Task.ID, out.Task.ReportedStatus(sessionID))
			if len(out.Dropped) > 0 {
				_, _ = fmt.Fprintf(w, "%s\n", mutedStyle.Render("ignored: "+strings.Join(out.Dropped, ", ")))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Session ID (default $MAESTRO_SESSION_ID)")
	return cmd
}

// printTaskList prints tasks in TSV format.
func printTaskList(w io.Writer, tasks []*domain.Task) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tPARENT\tSTATUS\tPRIORITY\tSESSIONS\tTITLE")
	for _, task := range tasks {
		parentStr := "-"
		if task.ParentID != nil {
			parentStr = *task.ParentID
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			task.ID,
			parentStr,
			taskStatusStyle(task.Status).Render(string(task.Status)),
			task.Priority,
			len(task.SessionIDs),
			task.Title,
		)
	}
}

func printTaskDetails(w io.Writer, task *domain.Task) {
	_, _ = fmt.Fprintf(w, "%s %s\n", headerStyle.Render(task.ID), task.Title)
	_, _ = fmt.Fprintf(w, "Status:   %s\n", taskStatusStyle(task.Status).Render(task.Status.Display()))
	_, _ = fmt.Fprintf(w, "Priority: %s\n", task.Priority)
	_, _ = fmt.Fprintf(w, "Project:  %s\n", task.ProjectID)
	if task.ParentID != nil {
		_, _ = fmt.Fprintf(w, "Parent:   %s\n", *task.ParentID)
	}
	if len(task.Dependencies) > 0 {
		_, _ = fmt.Fprintf(w, "Depends:  %s\n", strings.Join(task.Dependencies, ", "))
	}
	if len(task.SessionIDs) > 0 {
		_, _ = fmt.Fprintln(w, "Sessions:")
		for _, id := range task.SessionIDs {
			reported := string(task.ReportedStatus(id))
			if reported == "" {
				reported = "-"
			}
			_, _ = fmt.Fprintf(w, "  %s\t%s\n", id, reported)
		}
	}
	if task.Description != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", task.Description)
	}
}
