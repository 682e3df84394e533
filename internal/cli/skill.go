package cli

import (
	"fmt"

	"github.com/runoshun/maestro/internal/usecase"
	"github.com/spf13/cobra"
)

// newSkillCommand creates the skill command that installs the worker skill file.
func newSkillCommand(e *env) *cobra.Command {
	var opts struct {
		Dir   string
		Force bool
	}

	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Install the worker skill for coding agents",
		Long: `Write SKILL.md files that teach coding agents (Claude, Codex, OpenCode)
the worker commands. Run it in a project's working directory so spawned
sessions pick it up.

Existing files are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := opts.Dir
			if dir == "" {
				dir = e.workDir
			}
			out, err := usecase.NewGenSkill().Execute(cmd.Context(), usecase.GenSkillInput{Dir: dir, Force: opts.Force})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, p := range out.CreatedPaths {
				_, _ = fmt.Fprintf(w, "Created %s\n", p)
			}
			for _, p := range out.SkippedPaths {
				_, _ = fmt.Fprintf(w, "%s\n", mutedStyle.Render("Kept "+p))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Target directory (default current directory)")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Overwrite existing skill files")

	return cmd
}
