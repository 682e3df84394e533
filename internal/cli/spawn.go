package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/httpapi"
	"github.com/spf13/cobra"
)

// newSpawnCommand creates the spawn command that starts a session.
func newSpawnCommand(e *env) *cobra.Command {
	var opts struct {
		Project  string
		Name     string
		Role     string
		Strategy string
		Tasks    []string
		Env      bool
	}

	cmd := &cobra.Command{
		Use:   "spawn",
		Short: "Spawn a worker session",
		Long: `Create a session for a set of tasks and ask the server to launch it.

With the launcher enabled the server starts the configured command itself.
Otherwise the launch parameters are printed; use --env to print them as
shell assignments for starting the worker by hand.

When run from inside a session (MAESTRO_SESSION_ID is set) the spawn is
recorded as requested by that session.

Examples:
  maestro spawn --project proj_1 --task task_1 --task task_2 --strategy queue
  eval "$(maestro spawn --project proj_1 --task task_3 --env)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project := opts.Project
			if project == "" {
				project = e.getenv(domain.EnvProjectID)
			}
			source := domain.SpawnSourceUser
			if e.getenv(domain.EnvSessionID) != "" {
				source = domain.SpawnSourceSession
			}

			out, err := e.client().SpawnSession(cmd.Context(), httpapi.SpawnSessionRequest{
				ProjectID:   project,
				Name:        opts.Name,
				Role:        domain.Role(opts.Role),
				Strategy:    domain.Strategy(opts.Strategy),
				SpawnSource: source,
				TaskIDs:     opts.Tasks,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.Env {
				for _, k := range sortedKeys(out.EnvVars) {
					_, _ = fmt.Fprintf(w, "export %s=%s\n", k, shellQuote(out.EnvVars[k]))
				}
				return nil
			}

			_, _ = fmt.Fprintf(w, "Spawned session %s (%s, %s)\n", out.Session.ID, out.Session.Role, out.Session.Strategy)
			_, _ = fmt.Fprintf(w, "Command: %s\n", strings.Join(append([]string{out.Command}, out.Args...), " "))
			_, _ = fmt.Fprintf(w, "Cwd:     %s\n", out.Cwd)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Project ID (default $MAESTRO_PROJECT_ID)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Session name")
	cmd.Flags().StringVar(&opts.Role, "role", "", "Role: worker or orchestrator (default worker)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "Strategy: simple, queue or tree (default simple)")
	cmd.Flags().StringSliceVarP(&opts.Tasks, "task", "t", nil, "Task IDs to assign (repeatable)")
	cmd.Flags().BoolVar(&opts.Env, "env", false, "Print the worker environment as shell exports")

	return cmd
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
