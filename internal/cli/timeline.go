package cli

import (
	"fmt"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/httpapi"
	"github.com/spf13/cobra"
)

// newLogCommand creates the log command that appends to the session timeline.
func newLogCommand(e *env) *cobra.Command {
	var opts struct {
		Session string
		Type    string
		Task    string
	}

	cmd := &cobra.Command{
		Use:   "log <message>",
		Short: "Record progress on the session timeline",
		Long: `Append an entry to the current session's timeline.

Types: progress (default), milestone, error.

Examples:
  maestro log "tests passing"
  maestro log --type milestone --task task_3 "API done"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := e.sessionID(opts.Session)
			if err != nil {
				return err
			}
			ev, err := e.client().AppendTimeline(cmd.Context(), sessionID, httpapi.TimelineRequest{
				Type:    domain.TimelineEventType(opts.Type),
				Message: strings.Join(args, " "),
				TaskID:  opts.Task,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ev.ID, ev.Type)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "Session ID (default $MAESTRO_SESSION_ID)")
	cmd.Flags().StringVar(&opts.Type, "type", string(domain.TimelineProgress), "Entry type")
	cmd.Flags().StringVar(&opts.Task, "task", "", "Task the entry is about")

	return cmd
}
