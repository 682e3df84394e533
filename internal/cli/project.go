package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/httpapi"
	"github.com/spf13/cobra"
)

// newProjectCommand creates the project command.
func newProjectCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCommand(e), newProjectListCommand(e))
	return cmd
}

func newProjectCreateCommand(e *env) *cobra.Command {
	var opts struct {
		Dir         string
		Description string
	}

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Long: `Create a project rooted at a working directory. Sessions spawned for the
project start in that directory.

Examples:
  maestro project create api --dir ~/src/api`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Dir
			if dir == "" {
				dir = e.workDir
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			if info, err := os.Stat(abs); err != nil || !info.IsDir() {
				return domain.NewValidationError("dir", fmt.Sprintf("%s is not a directory", abs))
			}

			p, err := e.client().CreateProject(cmd.Context(), httpapi.CreateProjectRequest{
				Name:        args[0],
				WorkingDir:  abs,
				Description: opts.Description,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created project %s: %s\n", p.ID, p.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Working directory (default current directory)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Project description")

	return cmd
}

func newProjectListCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := e.client().ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			printProjectList(cmd.OutOrStdout(), projects)
			return nil
		},
	}
}

// printProjectList prints projects in TSV format.
func printProjectList(w io.Writer, projects []*domain.Project) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tNAME\tDIR")
	for _, p := range projects {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.WorkingDir)
	}
}
