package cli

import (
	"fmt"
	"strings"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/spf13/cobra"
)

// newHookCommand creates the hook command that reports a lifecycle signal.
func newHookCommand(e *env) *cobra.Command {
	var opts struct {
		Session  string
		ExitCode int
	}

	signals := make([]string, 0, len(domain.AllHookSignals()))
	for _, s := range domain.AllHookSignals() {
		signals = append(signals, string(s))
	}

	cmd := &cobra.Command{
		Use:       "hook <signal>",
		Short:     "Report a worker lifecycle signal",
		ValidArgs: signals,
		Long: fmt.Sprintf(`Report a lifecycle signal for the current session.

Signals: %s

Wire these into the worker's own hook mechanism. Signals that would not change
the session (for example input-submitted while already working) are ignored.

Examples:
  maestro hook awaiting-input
  maestro hook process-ended --exit-code 1`, strings.Join(signals, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signal := domain.HookSignal(args[0])
			if !signal.IsValid() {
				return domain.NewValidationError("signal", fmt.Sprintf("unknown signal %q", args[0]))
			}
			sessionID, err := e.sessionID(opts.Session)
			if err != nil {
				return err
			}

			out, err := e.client().Hook(cmd.Context(), sessionID, signal, opts.ExitCode)
			if err != nil {
				return fmt.Errorf("report %s: %w", signal, err)
			}

			if out.Ignored {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ignored (session %s)\n", signal, out.Session.Status)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: session %s\n", signal, out.Session.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "Session ID (default $MAESTRO_SESSION_ID)")
	cmd.Flags().IntVar(&opts.ExitCode, "exit-code", 0, "Process exit code (process-ended only)")

	return cmd
}
