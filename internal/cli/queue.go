package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/httpapi"
	"github.com/runoshun/maestro/internal/infra/logging"
	"github.com/runoshun/maestro/internal/worker"
	"github.com/spf13/cobra"
)

// ErrNoWork is returned by "queue wait" when the poll timeout elapsed
// without a task arriving. main maps it to exit code 2.
var ErrNoWork = errors.New("no queued work")

// newQueueCommand creates the queue command group used by queue-strategy workers.
func newQueueCommand(e *env) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Work through the session's task queue",
		Long: `Work through the task queue of a queue-strategy session.

A worker loops: "queue wait" claims the next task, the worker does it, then
reports the outcome with "queue complete", "queue fail" or "queue skip".

Examples:
  while maestro queue wait; do
    # ... work on the claimed task ...
    maestro queue complete
  done`,
	}
	cmd.PersistentFlags().StringVar(&session, "session", "", "Session ID (default $MAESTRO_SESSION_ID)")

	cmd.AddCommand(
		newQueueWaitCommand(e, &session),
		newQueuePeekCommand(e, &session),
		newQueueShowCommand(e, &session),
		newQueueFinishCommand(e, &session, domain.QueueItemCompleted, "complete", "Mark the processing task completed"),
		newQueueFinishCommand(e, &session, domain.QueueItemFailed, "fail", "Mark the processing task failed"),
		newQueueFinishCommand(e, &session, domain.QueueItemSkipped, "skip", "Skip the processing task"),
		newQueuePushCommand(e, &session),
	)
	return cmd
}

func newQueueWaitCommand(e *env, session *string) *cobra.Command {
	var opts struct {
		Interval time.Duration
		Timeout  time.Duration
		JSON     bool
		Verbose  bool
	}

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Claim the next task, waiting for one if the queue is empty",
		Long: `Claim the next queued task. If the queue is empty, poll until a task is
pushed or the timeout elapses.

Only "no work" answers count against the timeout; while the server is
unreachable the poll backs off and retries up to queue.max_connect_errors
times in a row. When the timeout elapses the session is marked idle and the
command exits with status 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionID, err := e.sessionID(*session)
			if err != nil {
				return err
			}
			cfg, err := e.loadConfig()
			if err != nil {
				return err
			}
			popts, err := worker.OptionsFromConfig(cfg.Queue)
			if err != nil {
				return err
			}
			if opts.Interval > 0 {
				popts.Interval = opts.Interval
			}
			if cmd.Flags().Changed("timeout") {
				popts.Timeout = opts.Timeout
			}

			var logger domain.Logger
			if opts.Verbose {
				l := logging.New("", logging.ParseLevel(cfg.Log.Level), cmd.ErrOrStderr())
				defer func() { _ = l.Close() }()
				logger = l
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			res, err := worker.NewPoller(e.client(), popts, logger).Wait(ctx, sessionID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.JSON {
				if err := writeJSON(w, res); err != nil {
					return err
				}
			} else if res.Task != nil {
				printClaimed(w, res.Task)
			}
			if res.TimedOut {
				if !opts.JSON {
					_, _ = fmt.Fprintf(w, "no work after %s\n", res.Waited)
				}
				return ErrNoWork
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "Poll interval (default queue.poll_interval)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Give up after this long without work (default queue.poll_timeout)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log poll attempts to stderr")

	return cmd
}

func newQueuePeekCommand(e *env, session *string) *cobra.Command {
	return &cobra.Command{
		Use:   "peek",
		Short: "Show the next queued task without claiming it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionID, err := e.sessionID(*session)
			if err != nil {
				return err
			}
			out, err := e.client().Peek(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.Processing != nil {
				_, _ = fmt.Fprintf(w, "processing: %s\n", out.Processing.TaskID)
			}
			if out.Item == nil {
				_, _ = fmt.Fprintln(w, "queue is empty")
				return nil
			}
			title := ""
			if out.Task != nil {
				title = out.Task.Title
			}
			_, _ = fmt.Fprintf(w, "next: %s\t%s\n", out.Item.TaskID, title)
			return nil
		},
	}
}

func newQueueShowCommand(e *env, session *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List every item of the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionID, err := e.sessionID(*session)
			if err != nil {
				return err
			}
			out, err := e.client().Queue(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			printQueue(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newQueueFinishCommand(e *env, session *string, outcome domain.QueueItemStatus, use, short string) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionID, err := e.sessionID(*session)
			if err != nil {
				return err
			}
			out, err := e.client().Finish(cmd.Context(), sessionID, outcome, reason)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out.Item.TaskID, queueItemStyle(out.Item.Status).Render(string(out.Item.Status)))
			for _, id := range out.Unsynced {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: report on %s was not updated\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason recorded on the item")
	return cmd
}

func newQueuePushCommand(e *env, session *string) *cobra.Command {
	return &cobra.Command{
		Use:   "push <task-id>",
		Short: "Append a task to the queue",
		Long: `Append a task to the queue. The task is linked to the session if it is
not already.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := e.sessionID(*session)
			if err != nil {
				return err
			}
			out, err := e.client().Push(cmd.Context(), sessionID, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queued %s (%d items)\n", out.Item.TaskID, len(out.Queue.Items))
			return nil
		},
	}
}

func printClaimed(w io.Writer, task *domain.Task) {
	_, _ = fmt.Fprintf(w, "%s\t%s\n", task.ID, task.Title)
	if task.Description != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", task.Description)
	}
}

func printQueue(w io.Writer, out *httpapi.QueueResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "#\tTASK\tSTATUS\tREASON")
	for i, item := range out.Queue.Items {
		reason := item.Reason
		if reason == "" {
			reason = "-"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, item.TaskID, queueItemStyle(item.Status).Render(string(item.Status)), reason)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
