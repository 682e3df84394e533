package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/httpapi"
	"github.com/spf13/cobra"
)

func newTaskImportCommand(e *env) *cobra.Command {
	var opts struct {
		Project string
		DryRun  bool
	}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create tasks from a markdown file",
		Long: `Create tasks from a markdown file with one frontmatter block per task.

Keys: title (required), priority, parent, depends_on. A parent or
dependency is either the 1-based position of an earlier task in the file
or an existing task ID prefixed with '#'. Use '-' to read from stdin.

  ---
  title: Build the parser
  priority: high
  ---
  Split the file into blocks.

  ---
  title: Test the parser
  parent: 1
  ---

Examples:
  maestro task import plan.md --project proj_1
  maestro task import plan.md --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd.InOrStdin(), e.resolve(args[0]), args[0] == "-")
			if err != nil {
				return err
			}
			project := opts.Project
			if project == "" {
				project = e.getenv(domain.EnvProjectID)
			}

			resp, err := e.client().ImportTasks(cmd.Context(), project, httpapi.ImportTasksRequest{
				Content: content,
				DryRun:  opts.DryRun,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.DryRun {
				printDrafts(w, resp.Drafts)
				return nil
			}
			for _, task := range resp.Tasks {
				_, _ = fmt.Fprintf(w, "Created task %s: %s\n", task.ID, task.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Project ID (default $MAESTRO_PROJECT_ID)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Validate the file without creating tasks")

	return cmd
}

func readInput(stdin io.Reader, path string, fromStdin bool) (string, error) {
	if fromStdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read task file: %w", err)
	}
	return string(data), nil
}

func printDrafts(w io.Writer, drafts []domain.TaskDraft) {
	_, _ = fmt.Fprintf(w, "Would create %d tasks:\n", len(drafts))
	for i, d := range drafts {
		var refs []string
		if d.ParentRef != "" {
			refs = append(refs, "parent "+d.ParentRef)
		}
		if len(d.DependsOn) > 0 {
			refs = append(refs, "depends on "+strings.Join(d.DependsOn, ", "))
		}
		line := fmt.Sprintf("  %d. %s", i+1, d.Title)
		if len(refs) > 0 {
			line += mutedStyle.Render(" (" + strings.Join(refs, "; ") + ")")
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
