package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/runoshun/maestro/internal/domain"
	"github.com/spf13/cobra"
)

// newStatusCommand creates the status command that summarizes sessions and tasks.
func newStatusCommand(e *env) *cobra.Command {
	var opts struct {
		Project string
		All     bool
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sessions and task counts",
		Long: `Show the sessions of a project (or of every project) with their status and
last activity, followed by task counts per status.

By default only sessions that have not ended are listed; use --all to include
completed, failed and stopped sessions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c := e.client()

			sessions, err := c.ListSessions(ctx, opts.Project, !opts.All)
			if err != nil {
				return err
			}
			tasks, err := c.ListTasks(ctx, opts.Project)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, headerStyle.Render("Sessions"))
			if len(sessions) == 0 {
				_, _ = fmt.Fprintln(w, mutedStyle.Render("  none"))
			} else {
				printSessionList(w, sessions)
			}

			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, headerStyle.Render("Tasks"))
			printTaskCounts(w, tasks)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Project ID (default all projects)")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Include ended sessions")

	return cmd
}

// printSessionList prints sessions in TSV format.
func printSessionList(w io.Writer, sessions []*domain.Session) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tNAME\tROLE\tSTRATEGY\tSTATUS\tTASKS\tLAST ACTIVITY")
	for _, s := range sessions {
		name := s.Name
		if name == "" {
			name = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			s.ID,
			name,
			s.Role,
			s.Strategy,
			sessionStatusStyle(s.Status).Render(string(s.Status)),
			len(s.TaskIDs),
			humanize.Time(s.LastActivityAt),
		)
	}
}

// printTaskCounts prints one line per task status that has tasks.
func printTaskCounts(w io.Writer, tasks []*domain.Task) {
	counts := make(map[domain.TaskStatus]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	for _, status := range domain.AllTaskStatuses() {
		if counts[status] == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", taskStatusStyle(status).Render(status.Display()), humanize.Comma(int64(counts[status])))
	}
	_, _ = fmt.Fprintf(w, "  %-12s %s\n", "total", humanize.Comma(int64(len(tasks))))
}
